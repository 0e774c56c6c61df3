// Package llmner implements ner.Recognizer on top of a text-generation
// provider.
//
// It is the fallback recogniser for deployments without a local statistical
// model: the text is sent to the [llm.Provider] with a strict extraction
// prompt and the JSON answer is parsed with the same tolerant extractor used
// for cleaning responses. Unlike the cleaner, an unusable answer is an error:
// a recogniser must never report "no entities" when it could not look.
package llmner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/extract"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

const defaultMaxTokens = 1024

// systemPrompt pins the label scheme to OntoNotes so results compare with a
// statistical recogniser's.
const systemPrompt = `You are a named-entity recognition engine.

Extract every named entity from the user's text, in order of appearance.
Repeat an entity each time it occurs. Copy the surface text exactly as written,
including misspellings and factual errors. Do not add, merge or normalise entities.

Use only these labels:
PERSON, NORP, FAC, ORG, GPE, LOC, PRODUCT, EVENT, WORK_OF_ART, LAW, LANGUAGE,
DATE, TIME, PERCENT, MONEY, QUANTITY, ORDINAL, CARDINAL

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{"entities": [{"text": "<surface text>", "label": "<LABEL>"}]}

If there are no entities, return {"entities": []}.`

var errNoEntityList = errors.New(`response has no "entities" array`)

var _ ner.Recognizer = (*Recognizer)(nil)

// Option is a functional option for configuring a [Recognizer].
type Option func(*Recognizer)

// WithMaxTokens caps the response length. Non-positive values keep the
// default of 1024.
func WithMaxTokens(n int) Option {
	return func(r *Recognizer) {
		if n > 0 {
			r.maxTokens = n
		}
	}
}

// Recognizer uses an [llm.Provider] as a named-entity recogniser. It is safe
// for concurrent use when the provider is.
type Recognizer struct {
	llm       llm.Provider
	maxTokens int
}

// New returns a Recognizer backed by provider.
func New(provider llm.Provider, opts ...Option) *Recognizer {
	r := &Recognizer{llm: provider, maxTokens: defaultMaxTokens}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Recognize asks the provider for the entities of text. Provider failures and
// unusable answers wrap ner.ErrModelUnavailable.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]ner.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return []ner.Entity{}, nil
	}

	resp, err := r.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt:   systemPrompt,
		Messages:       []llm.Message{{Role: "user", Content: text}},
		Temperature:    0,
		CandidateCount: 1,
		MaxTokens:      r.maxTokens,
		ResponseFormat: llm.ResponseFormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: llmner: complete: %w", ner.ErrModelUnavailable, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: llmner: empty response", ner.ErrModelUnavailable)
	}

	ents, err := parseEntities(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: llmner: %w", ner.ErrModelUnavailable, err)
	}
	return ents, nil
}

// parseEntities reads {"entities": [...]} from content. Items may be
// {"text","label"} objects or [text, label] pairs; anything else fails.
func parseEntities(content string) ([]ner.Entity, error) {
	res := extract.Extract(content)
	if res.Tier == extract.TierFallback {
		return nil, fmt.Errorf("unparseable response")
	}

	var raw any
	switch v := res.Value.(type) {
	case map[string]any:
		list, ok := v["entities"]
		if !ok {
			return nil, errNoEntityList
		}
		raw = list
	case []any:
		raw = v
	default:
		return nil, errNoEntityList
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, errNoEntityList
	}

	out := make([]ner.Entity, 0, len(items))
	for i, item := range items {
		e, ok := toEntity(item)
		if !ok {
			return nil, fmt.Errorf("entity %d is malformed: %v", i, item)
		}
		out = append(out, e)
	}
	return out, nil
}

func toEntity(item any) (ner.Entity, bool) {
	switch v := item.(type) {
	case map[string]any:
		text, ok1 := v["text"].(string)
		label, ok2 := v["label"].(string)
		if !ok1 || !ok2 || text == "" {
			return ner.Entity{}, false
		}
		return ner.Entity{Text: text, Label: strings.ToUpper(strings.TrimSpace(label))}, true
	case []any:
		if len(v) != 2 {
			return ner.Entity{}, false
		}
		text, ok1 := v[0].(string)
		label, ok2 := v[1].(string)
		if !ok1 || !ok2 || text == "" {
			return ner.Entity{}, false
		}
		return ner.Entity{Text: text, Label: strings.ToUpper(strings.TrimSpace(label))}, true
	default:
		return ner.Entity{}, false
	}
}
