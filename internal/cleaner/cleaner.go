// Package cleaner removes speech disfluencies from a transcript with a
// language model while keeping every factual claim intact.
//
// The [Cleaner] sends the transcript to an [llm.Provider] together with a
// strict instruction prompt and two worked examples in which factually wrong
// statements are deliberately preserved. Decoding is pinned to the most
// deterministic settings and a JSON object is requested.
//
// Cleaning never fails. When the provider errors, the transcript is passed
// through unchanged with an "API error" edit; when the answer is not a JSON
// object, the trimmed answer becomes the cleaned text. Every returned
// [Record] has its original and cleaned text set and a non-nil edit list.
//
// Nothing here can verify that the model kept the facts; that is the job of
// the drift validator downstream.
package cleaner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/extract"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm"
)

// Decoding settings for the cleaning request.
const (
	DefaultMaxTokens = 1024
	topP             = 0.1
)

// Edit notes added when the model's answer could not be used as-is.
const (
	APIErrorPrefix = "API error: "
	NonObjectEdit  = "(non-dict response)"
)

var errNilResponse = errors.New("provider returned no response")

// Record is the result of cleaning one transcript.
type Record struct {
	// Original is the transcript as the model echoed it, or the raw input.
	Original string `json:"original"`

	// Cleaned is the transcript with disfluencies removed.
	Cleaned string `json:"cleaned"`

	// Edits lists the linguistic changes the model reports, plus any
	// degradation notes. Never nil.
	Edits []string `json:"edits"`
}

// Outcome describes how a [Record] was produced.
type Outcome string

const (
	// OutcomeParsed means the whole answer was a JSON object.
	OutcomeParsed Outcome = "parsed"
	// OutcomeEmbedded means a JSON object was cut out of surrounding text.
	OutcomeEmbedded Outcome = "embedded"
	// OutcomeParserFallback means nothing parsed; the answer text was used.
	OutcomeParserFallback Outcome = "parser_fallback"
	// OutcomeNonObject means the answer was JSON but not an object.
	OutcomeNonObject Outcome = "non_object"
	// OutcomeAPIError means the provider call failed; input passed through.
	OutcomeAPIError Outcome = "api_error"
)

// Degraded reports whether the record did not come from a parsed object.
func (o Outcome) Degraded() bool {
	return o != OutcomeParsed && o != OutcomeEmbedded
}

// Option is a functional option for configuring a [Cleaner].
type Option func(*Cleaner)

// WithMaxTokens caps the response length. Default: 1024.
func WithMaxTokens(n int) Option {
	return func(c *Cleaner) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMetrics records latency and outcomes into m instead of
// observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Cleaner) { c.metrics = m }
}

// WithProviderName sets the provider label used in metrics and logs.
func WithProviderName(name string) Option {
	return func(c *Cleaner) { c.providerName = name }
}

// Cleaner uses an [llm.Provider] to remove disfluencies from transcripts.
// It is safe for concurrent use when the provider is.
type Cleaner struct {
	llm          llm.Provider
	providerName string
	maxTokens    int
	metrics      *observe.Metrics
}

// New returns a Cleaner backed by provider.
func New(provider llm.Provider, opts ...Option) *Cleaner {
	c := &Cleaner{
		llm:          provider,
		providerName: "llm",
		maxTokens:    DefaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Clean returns the cleaned form of raw. It never fails.
func (c *Cleaner) Clean(ctx context.Context, raw string) Record {
	rec, _ := c.CleanWithOutcome(ctx, raw)
	return rec
}

// CleanWithOutcome is [Cleaner.Clean] that also reports how the record was
// produced.
func (c *Cleaner) CleanWithOutcome(ctx context.Context, raw string) (Record, Outcome) {
	ctx, span := observe.StartSpan(ctx, "cleaner.clean")
	defer span.End()

	start := time.Now()
	resp, err := c.llm.Complete(ctx, c.request(raw))
	c.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", c.providerName)))
	if err == nil && resp == nil {
		err = errNilResponse
	}

	var (
		rec     Record
		outcome Outcome
	)
	if err != nil {
		observe.SpanError(span, err)
		c.metrics.RecordProviderRequest(ctx, c.providerName, observe.KindLLM, "error")
		c.metrics.RecordProviderError(ctx, c.providerName, observe.KindLLM)
		observe.Logger(ctx).Warn("cleaner: generation failed, passing transcript through",
			"provider", c.providerName, "err", err)
		rec, outcome = apiErrorRecord(raw, err), OutcomeAPIError
	} else {
		c.metrics.RecordProviderRequest(ctx, c.providerName, observe.KindLLM, "ok")
		rec, outcome = recordFromResponse(raw, resp.Content)
		if outcome.Degraded() {
			observe.Logger(ctx).Warn("cleaner: unstructured model response",
				"provider", c.providerName, "outcome", string(outcome), "response_len", len(resp.Content))
		}
	}

	c.metrics.RecordCleaning(ctx, string(outcome))
	span.SetAttributes(observe.Attr("cleaner.outcome", string(outcome)))
	return rec, outcome
}

func (c *Cleaner) request(raw string) llm.CompletionRequest {
	return llm.CompletionRequest{
		SystemPrompt:   systemPrompt,
		Messages:       []llm.Message{{Role: "user", Content: buildUserPrompt(raw)}},
		Temperature:    0,
		TopP:           topP,
		CandidateCount: 1,
		MaxTokens:      c.maxTokens,
		ResponseFormat: llm.ResponseFormatJSON,
	}
}

// apiErrorRecord is the pass-through record for a failed provider call.
func apiErrorRecord(raw string, err error) Record {
	return Record{
		Original: raw,
		Cleaned:  raw,
		Edits:    []string{APIErrorPrefix + err.Error()},
	}
}

// recordFromResponse extracts a Record from the model's answer and fills
// every missing or unusable field with its default.
func recordFromResponse(raw, content string) (Record, Outcome) {
	res := extract.Extract(content)

	obj, ok := res.Object()
	if !ok {
		return Record{
			Original: raw,
			Cleaned:  strings.TrimSpace(content),
			Edits:    []string{NonObjectEdit},
		}, OutcomeNonObject
	}

	rec := Record{
		Original: stringOr(obj[extract.KeyOriginal], raw),
		Cleaned:  stringOr(obj[extract.KeyCleaned], raw),
		Edits:    editList(obj[extract.KeyEdits]),
	}

	switch res.Tier {
	case extract.TierFull:
		return rec, OutcomeParsed
	case extract.TierEmbedded:
		return rec, OutcomeEmbedded
	default:
		return rec, OutcomeParserFallback
	}
}

// stringOr returns v when it is a string and def otherwise. A null or
// non-string value counts as missing.
func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

// editList coerces the edits value into a non-nil string slice. A single
// string becomes a one-element list; non-string elements are rendered as
// JSON; any other shape yields an empty list.
func editList(v any) []string {
	switch e := v.(type) {
	case []any:
		out := make([]string, 0, len(e))
		for _, item := range e {
			out = append(out, editString(item))
		}
		return out
	case string:
		return []string{e}
	default:
		return []string{}
	}
}

func editString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
