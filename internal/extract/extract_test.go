package extract

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		wantTier Tier
		want     any
	}{
		{
			name:     "whole payload is an object",
			text:     `{"original": "uh hi", "cleaned": "Hi.", "edits": ["Removed filler: 'uh'"]}`,
			wantTier: TierFull,
			want: map[string]any{
				"original": "uh hi",
				"cleaned":  "Hi.",
				"edits":    []any{"Removed filler: 'uh'"},
			},
		},
		{
			name:     "object with surrounding whitespace",
			text:     "\n  {\"cleaned\": \"Hi.\"}  \n",
			wantTier: TierFull,
			want:     map[string]any{"cleaned": "Hi."},
		},
		{
			name:     "non-object JSON is returned as-is",
			text:     `["a", "b"]`,
			wantTier: TierFull,
			want:     []any{"a", "b"},
		},
		{
			name:     "JSON string literal",
			text:     `"just text"`,
			wantTier: TierFull,
			want:     "just text",
		},
		{
			name:     "markdown fenced object",
			text:     "```json\n{\"cleaned\": \"Hi.\", \"edits\": []}\n```",
			wantTier: TierEmbedded,
			want:     map[string]any{"cleaned": "Hi.", "edits": []any{}},
		},
		{
			name:     "prose around object",
			text:     `Sure! Here is the result: {"cleaned": "The answer is 42."} Let me know if you need more.`,
			wantTier: TierEmbedded,
			want:     map[string]any{"cleaned": "The answer is 42."},
		},
		{
			name:     "nested braces use outermost span",
			text:     `result: {"cleaned": "x", "meta": {"n": 1}} done`,
			wantTier: TierEmbedded,
			want:     map[string]any{"cleaned": "x", "meta": map[string]any{"n": float64(1)}},
		},
		{
			name:     "no braces at all",
			text:     "  The capital of France is Berlin.  ",
			wantTier: TierFallback,
			want: map[string]any{
				"original": nil,
				"cleaned":  "The capital of France is Berlin.",
				"edits":    []any{FallbackEdit},
			},
		},
		{
			name:     "braces in wrong order",
			text:     "} nope {",
			wantTier: TierFallback,
			want: map[string]any{
				"original": nil,
				"cleaned":  "} nope {",
				"edits":    []any{FallbackEdit},
			},
		},
		{
			name:     "broken JSON between braces",
			text:     `{"cleaned": "unterminated}`,
			wantTier: TierFallback,
			want: map[string]any{
				"original": nil,
				"cleaned":  `{"cleaned": "unterminated}`,
				"edits":    []any{FallbackEdit},
			},
		},
		{
			name:     "two objects side by side",
			text:     `{"a": 1} {"b": 2}`,
			wantTier: TierFallback,
			want: map[string]any{
				"original": nil,
				"cleaned":  `{"a": 1} {"b": 2}`,
				"edits":    []any{FallbackEdit},
			},
		},
		{
			name:     "empty payload",
			text:     "",
			wantTier: TierFallback,
			want: map[string]any{
				"original": nil,
				"cleaned":  "",
				"edits":    []any{FallbackEdit},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Extract(tt.text)
			if got.Tier != tt.wantTier {
				t.Errorf("tier = %v, want %v", got.Tier, tt.wantTier)
			}
			if !reflect.DeepEqual(got.Value, tt.want) {
				t.Errorf("value = %#v, want %#v", got.Value, tt.want)
			}
		})
	}
}

func TestResult_Object(t *testing.T) {
	t.Parallel()

	if _, ok := Extract(`[1, 2]`).Object(); ok {
		t.Error("array must not report as object")
	}
	if _, ok := Extract(`null`).Object(); ok {
		t.Error("null must not report as object")
	}
	m, ok := Extract(`{"cleaned": "x"}`).Object()
	if !ok || m["cleaned"] != "x" {
		t.Errorf("Object() = %v, %v", m, ok)
	}
	if _, ok := Extract("garbage").Object(); !ok {
		t.Error("fallback value must be an object")
	}
}

func TestTier_String(t *testing.T) {
	t.Parallel()

	for tier, want := range map[Tier]string{
		TierFull:     "full",
		TierEmbedded: "embedded",
		TierFallback: "fallback",
		Tier(42):     "unknown",
	} {
		if got := tier.String(); got != want {
			t.Errorf("Tier(%d).String() = %q, want %q", int(tier), got, want)
		}
	}
}
