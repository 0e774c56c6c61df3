package anyllm

import (
	"testing"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm"
)

// ── New ───────────────────────────────────────────────────────────────────────

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gemini-2.0-flash"); err == nil {
		t.Error("expected error for empty provider name")
	}
	if _, err := New("gemini", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("not-a-provider", "m", anyllmlib.WithAPIKey("k")); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

// ── buildParams ───────────────────────────────────────────────────────────────

func TestBuildParams_DeterministicJSONRequest(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gemini-2.0-flash"}
	params := p.buildParams(llm.CompletionRequest{
		SystemPrompt:   "rules",
		Messages:       []llm.Message{{Role: "user", Content: "um hello"}},
		Temperature:    0,
		TopP:           0.1,
		CandidateCount: 1,
		MaxTokens:      1024,
		ResponseFormat: llm.ResponseFormatJSON,
	})

	if params.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q", params.Model)
	}
	if len(params.Messages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(params.Messages))
	}
	if params.Messages[0].Role != anyllmlib.RoleSystem {
		t.Errorf("first message role = %q, want system", params.Messages[0].Role)
	}
	if params.Messages[1].ContentString() != "um hello" {
		t.Errorf("user content = %q", params.Messages[1].ContentString())
	}
	if params.Temperature == nil || *params.Temperature != 0 {
		t.Errorf("temperature must be forwarded as explicit 0, got %v", params.Temperature)
	}
	if params.TopP == nil || *params.TopP != 0.1 {
		t.Errorf("top_p = %v, want 0.1", params.TopP)
	}
	if params.MaxTokens == nil || *params.MaxTokens != 1024 {
		t.Errorf("max tokens = %v, want 1024", params.MaxTokens)
	}
	if params.ResponseFormat == nil || params.ResponseFormat.Type != "json_object" {
		t.Errorf("response format = %+v, want json_object", params.ResponseFormat)
	}
}

func TestBuildParams_OmitsUnsetKnobs(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "llama3.1"}
	params := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if len(params.Messages) != 1 {
		t.Errorf("expected no system message, got %d messages", len(params.Messages))
	}
	if params.TopP != nil {
		t.Error("top_p should be nil when unset")
	}
	if params.MaxTokens != nil {
		t.Error("max tokens should be nil when unset")
	}
	if params.ResponseFormat != nil {
		t.Error("response format should be nil for text requests")
	}
}

// ── modelCapabilities ─────────────────────────────────────────────────────────

func TestModelCapabilities(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model       string
		wantContext int
		wantJSON    bool
	}{
		{"gemini-2.0-flash", 1_048_576, true},
		{"gemini-1.5-pro-latest", 2_097_152, true},
		{"gpt-4o-mini", 128_000, true},
		{"gpt-4", 8_192, false},
		{"claude-3-5-sonnet-latest", 200_000, false},
		{"some-local-model", 128_000, false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			caps := modelCapabilities(tt.model)
			if caps.ContextWindow != tt.wantContext {
				t.Errorf("context window = %d, want %d", caps.ContextWindow, tt.wantContext)
			}
			if caps.SupportsJSONMode != tt.wantJSON {
				t.Errorf("json mode = %v, want %v", caps.SupportsJSONMode, tt.wantJSON)
			}
		})
	}
}
