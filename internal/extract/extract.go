// Package extract turns a raw text-generation response into a structured
// value without ever failing.
//
// Models asked for "JSON only" still wrap their answer in prose, markdown
// fences or trailing commentary, and occasionally return nothing parseable at
// all. [Extract] degrades through three tiers, first success wins:
//
//  1. [TierFull]: the whole payload decodes as JSON.
//  2. [TierEmbedded]: the span from the first '{' to the last '}' decodes.
//  3. [TierFallback]: a record is synthesised around the trimmed payload.
//
// The tier that produced the value is reported alongside it so callers can
// count and log degraded responses.
package extract

import (
	"encoding/json"
	"strings"
)

// Keys of the synthesised fallback object.
const (
	KeyOriginal = "original"
	KeyCleaned  = "cleaned"
	KeyEdits    = "edits"
)

// FallbackEdit is the single edit note carried by a [TierFallback] result.
const FallbackEdit = "(parser fallback)"

// Tier identifies which stage of the fallback chain produced a [Result].
type Tier int

const (
	// TierFull means the entire payload was valid JSON.
	TierFull Tier = iota

	// TierEmbedded means a JSON object was found between the first opening
	// and the last closing brace.
	TierEmbedded

	// TierFallback means nothing parsed and the value was synthesised.
	TierFallback
)

// String returns the human-readable name of the tier.
func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierEmbedded:
		return "embedded"
	case TierFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Result is the outcome of [Extract].
type Result struct {
	// Value is the decoded JSON value: map[string]any for objects, but any
	// JSON type is possible at [TierFull] (arrays, strings, numbers, nil).
	Value any

	// Tier reports which stage produced Value.
	Tier Tier
}

// Object returns Value as a JSON object and reports whether it is one.
func (r Result) Object() (map[string]any, bool) {
	m, ok := r.Value.(map[string]any)
	return m, ok
}

// Extract decodes text using the three-tier fallback chain. It never panics
// and never returns an error; at worst the result is a [TierFallback] object.
func Extract(text string) Result {
	if v, ok := decode(text); ok {
		return Result{Value: v, Tier: TierFull}
	}

	if span, ok := objectSpan(text); ok {
		if v, ok := decode(span); ok {
			return Result{Value: v, Tier: TierEmbedded}
		}
	}

	return Result{Value: Fallback(text), Tier: TierFallback}
}

// Fallback builds the synthesised record used when nothing in text parses.
// The "original" key is present but nil: the extractor cannot know the
// caller's input.
func Fallback(text string) map[string]any {
	return map[string]any{
		KeyOriginal: nil,
		KeyCleaned:  strings.TrimSpace(text),
		KeyEdits:    []any{FallbackEdit},
	}
}

// objectSpan returns the substring from the first '{' to the last '}',
// inclusive, when both exist in that order.
func objectSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func decode(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
