package cleaner

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm/mock"
)

func respond(content string) *mock.Provider {
	return &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: content}}
}

// checkInvariants fails the test if rec could not be handed to a caller.
func checkInvariants(t *testing.T, rec Record) {
	t.Helper()
	if rec.Edits == nil {
		t.Error("edits is nil")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"original", "cleaned"} {
		if _, ok := m[k].(string); !ok {
			t.Errorf("%s is %v, want string", k, m[k])
		}
	}
	if _, ok := m["edits"].([]any); !ok {
		t.Errorf("edits is %v, want array", m["edits"])
	}
}

// ── request ──────────────────────────────────────────────────────────────────

func TestClean_RequestIsDeterministicJSON(t *testing.T) {
	t.Parallel()

	p := respond(`{"original": "x", "cleaned": "x", "edits": []}`)
	raw := "uh so um the water cycle has like 4 stages"
	New(p).Clean(context.Background(), raw)

	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("Complete called %d times, want 1", len(calls))
	}
	req := calls[0].Req
	if req.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", req.Temperature)
	}
	if req.TopP != 0.1 {
		t.Errorf("top_p = %v, want 0.1", req.TopP)
	}
	if req.CandidateCount != 1 {
		t.Errorf("candidate count = %d, want 1", req.CandidateCount)
	}
	if req.MaxTokens != 1024 {
		t.Errorf("max tokens = %d, want 1024", req.MaxTokens)
	}
	if req.ResponseFormat != llm.ResponseFormatJSON {
		t.Errorf("response format = %q, want json_object", req.ResponseFormat)
	}
	for _, rule := range []string{
		"NEVER change numbers, dates, quantities or measurements",
		"NEVER swap, correct or \"fix\" named entities",
		"Filler words",
	} {
		if !strings.Contains(req.SystemPrompt, rule) {
			t.Errorf("system prompt lacks %q", rule)
		}
	}

	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", req.Messages)
	}
	user := req.Messages[0].Content
	if !strings.HasSuffix(user, "Input:\n"+raw+"\n\nReturn JSON only:") {
		t.Errorf("user prompt does not end with the input:\n%s", user)
	}
	if !strings.Contains(user, "PRESERVED incorrect date '1900' without correction") {
		t.Error("user prompt lacks the Lincoln exemplar")
	}
}

func TestClean_WithMaxTokens(t *testing.T) {
	t.Parallel()

	p := respond(`{}`)
	New(p, WithMaxTokens(256)).Clean(context.Background(), "hi")
	if got := p.Calls()[0].Req.MaxTokens; got != 256 {
		t.Errorf("max tokens = %d, want 256", got)
	}

	p = respond(`{}`)
	New(p, WithMaxTokens(0)).Clean(context.Background(), "hi")
	if got := p.Calls()[0].Req.MaxTokens; got != DefaultMaxTokens {
		t.Errorf("max tokens = %d, want default for non-positive option", got)
	}
}

func TestRenderExemplars(t *testing.T) {
	t.Parallel()

	blocks := strings.Split(exemplarText, "\n\n---\n\n")
	if len(blocks) != 2 {
		t.Fatalf("got %d exemplar blocks, want 2", len(blocks))
	}

	first := blocks[0]
	if !strings.HasPrefix(first, "Input:\nuh the capital of France is Berlin I think um yeah Berlin.\n\nRequired Output:\n{") {
		t.Errorf("unexpected block header:\n%s", first)
	}
	// Keys appear in record order and non-ASCII survives unescaped.
	iOrig := strings.Index(first, `"original"`)
	iClean := strings.Index(first, `"cleaned"`)
	iEdits := strings.Index(first, `"edits"`)
	if !(iOrig < iClean && iClean < iEdits) {
		t.Errorf("key order wrong: original@%d cleaned@%d edits@%d", iOrig, iClean, iEdits)
	}
	if !strings.Contains(first, "I think—yeah, Berlin.") {
		t.Error("em dash was escaped or lost")
	}
	if !strings.Contains(first, "\n  \"cleaned\": ") {
		t.Error("exemplar JSON is not indented by two spaces")
	}
}

// ── responses ────────────────────────────────────────────────────────────────

func TestClean_Responses(t *testing.T) {
	t.Parallel()

	const raw = "um Lincoln was assassinated in like 1865."

	tests := []struct {
		name        string
		content     string
		want        Record
		wantOutcome Outcome
	}{
		{
			name:    "complete object",
			content: `{"original": "um Lincoln was assassinated in like 1865.", "cleaned": "Lincoln was assassinated in 1865.", "edits": ["Removed fillers: 'um', 'like'"]}`,
			want: Record{
				Original: raw,
				Cleaned:  "Lincoln was assassinated in 1865.",
				Edits:    []string{"Removed fillers: 'um', 'like'"},
			},
			wantOutcome: OutcomeParsed,
		},
		{
			name:        "fenced object",
			content:     "```json\n{\"cleaned\": \"Lincoln was assassinated in 1865.\", \"edits\": []}\n```",
			want:        Record{Original: raw, Cleaned: "Lincoln was assassinated in 1865.", Edits: []string{}},
			wantOutcome: OutcomeEmbedded,
		},
		{
			name:        "missing keys get defaults",
			content:     `{}`,
			want:        Record{Original: raw, Cleaned: raw, Edits: []string{}},
			wantOutcome: OutcomeParsed,
		},
		{
			name:        "null fields count as missing",
			content:     `{"original": null, "cleaned": null, "edits": null}`,
			want:        Record{Original: raw, Cleaned: raw, Edits: []string{}},
			wantOutcome: OutcomeParsed,
		},
		{
			name:        "non-string fields count as missing",
			content:     `{"original": 1865, "cleaned": ["x"], "edits": {"a": 1}}`,
			want:        Record{Original: raw, Cleaned: raw, Edits: []string{}},
			wantOutcome: OutcomeParsed,
		},
		{
			name:        "single string edit",
			content:     `{"cleaned": "Lincoln was assassinated in 1865.", "edits": "Removed filler"}`,
			want:        Record{Original: raw, Cleaned: "Lincoln was assassinated in 1865.", Edits: []string{"Removed filler"}},
			wantOutcome: OutcomeParsed,
		},
		{
			name:        "mixed edit elements",
			content:     `{"cleaned": "c", "edits": ["a", 2, {"k": "v"}, null]}`,
			want:        Record{Original: raw, Cleaned: "c", Edits: []string{"a", "2", `{"k":"v"}`, "null"}},
			wantOutcome: OutcomeParsed,
		},
		{
			name:        "prose answer falls back to trimmed text",
			content:     "  Lincoln was assassinated in 1865.  ",
			want:        Record{Original: raw, Cleaned: "Lincoln was assassinated in 1865.", Edits: []string{"(parser fallback)"}},
			wantOutcome: OutcomeParserFallback,
		},
		{
			name:        "array answer",
			content:     ` ["Lincoln was assassinated in 1865."] `,
			want:        Record{Original: raw, Cleaned: `["Lincoln was assassinated in 1865."]`, Edits: []string{NonObjectEdit}},
			wantOutcome: OutcomeNonObject,
		},
		{
			name:        "string literal answer",
			content:     `"Lincoln"`,
			want:        Record{Original: raw, Cleaned: `"Lincoln"`, Edits: []string{NonObjectEdit}},
			wantOutcome: OutcomeNonObject,
		},
		{
			name:        "empty answer",
			content:     "",
			want:        Record{Original: raw, Cleaned: "", Edits: []string{"(parser fallback)"}},
			wantOutcome: OutcomeParserFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, outcome := New(respond(tt.content)).CleanWithOutcome(context.Background(), raw)
			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", outcome, tt.wantOutcome)
			}
			if !reflect.DeepEqual(rec, tt.want) {
				t.Errorf("record = %#v\nwant     %#v", rec, tt.want)
			}
			checkInvariants(t, rec)
		})
	}
}

func TestClean_ProviderErrorPassesThrough(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"uh the capital of France is Berlin I think um yeah Berlin.",
		"",
		"ähm, die Hauptstadt ist — äh — Bärlin 🙂",
	}
	for _, raw := range inputs {
		p := &mock.Provider{CompleteErr: errors.New("429 resource exhausted")}
		rec, outcome := New(p).CleanWithOutcome(context.Background(), raw)

		if outcome != OutcomeAPIError {
			t.Errorf("outcome = %q, want api_error", outcome)
		}
		if rec.Original != raw || rec.Cleaned != raw {
			t.Errorf("record %+v does not pass %q through", rec, raw)
		}
		if len(rec.Edits) != 1 || rec.Edits[0] != "API error: 429 resource exhausted" {
			t.Errorf("edits = %q", rec.Edits)
		}
		checkInvariants(t, rec)
	}
}

func TestClean_NilResponseIsAPIError(t *testing.T) {
	t.Parallel()

	rec, outcome := New(&mock.Provider{}).CleanWithOutcome(context.Background(), "um hi")
	if outcome != OutcomeAPIError {
		t.Fatalf("outcome = %q, want api_error", outcome)
	}
	if !strings.HasPrefix(rec.Edits[0], APIErrorPrefix) {
		t.Errorf("edits = %q", rec.Edits)
	}
}

func TestClean_CancelledContextStillReturnsRecord(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteFunc: func(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return nil, ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := New(p).Clean(ctx, "um hello")
	if rec.Cleaned != "um hello" || !strings.Contains(rec.Edits[0], "context canceled") {
		t.Errorf("record = %+v", rec)
	}
}

func TestClean_EmptyAndNonASCIIInputs(t *testing.T) {
	t.Parallel()

	echo := &mock.Provider{CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		// Echo the tail of the prompt back as unparseable text.
		return &llm.CompletionResponse{Content: req.Messages[0].Content[len(req.Messages[0].Content)-20:]}, nil
	}}
	for _, raw := range []string{"", " ", "東京は日本の首都です", "{", "}{", "\x00\xff"} {
		rec := New(echo).Clean(context.Background(), raw)
		checkInvariants(t, rec)
	}
}

func TestRecord_JSONFieldNames(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Record{Original: "a", Cleaned: "b", Edits: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"original":"a","cleaned":"b","edits":[]}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestOutcome_Degraded(t *testing.T) {
	t.Parallel()

	for o, want := range map[Outcome]bool{
		OutcomeParsed:         false,
		OutcomeEmbedded:       false,
		OutcomeParserFallback: true,
		OutcomeNonObject:      true,
		OutcomeAPIError:       true,
	} {
		if got := o.Degraded(); got != want {
			t.Errorf("%s.Degraded() = %v, want %v", o, got, want)
		}
	}
}

// ── metrics ──────────────────────────────────────────────────────────────────

func TestClean_RecordsOutcomeMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatal(err)
	}

	ok := New(respond(`{"cleaned": "Hi."}`), WithMetrics(m), WithProviderName("gemini"))
	failing := New(&mock.Provider{CompleteErr: errors.New("boom")}, WithMetrics(m), WithProviderName("gemini"))
	ok.Clean(context.Background(), "uh hi")
	failing.Clean(context.Background(), "uh hi")
	failing.Clean(context.Background(), "uh hi")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "scribe.cleaning.outcomes" {
				continue
			}
			for _, dp := range met.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value("outcome")
				counts[v.AsString()] += dp.Value
			}
		}
	}
	if counts["parsed"] != 1 || counts["api_error"] != 2 {
		t.Errorf("outcome counts = %v, want parsed=1 api_error=2", counts)
	}
}
