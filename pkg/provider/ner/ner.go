// Package ner defines the Recognizer interface for named-entity recognition
// backends.
//
// A recogniser returns the entities of a text as ordered (surface text, label)
// pairs. Labels follow the OntoNotes scheme used by most statistical models
// (PERSON, GPE, LOC, ORG, DATE, ...); two recognisers are only comparable when
// they share a label scheme.
//
// A recogniser that cannot load its model must say so: [ErrModelUnavailable]
// is never reported as "no entities".
package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrModelUnavailable is wrapped by every error caused by a recogniser that
// could not load or reach its model.
var ErrModelUnavailable = errors.New("ner: entity model unavailable")

// Entity is a recognised named entity. It serialises as the two-element JSON
// array [text, label].
type Entity struct {
	Text  string
	Label string
}

// String returns "text (LABEL)".
func (e Entity) String() string {
	return fmt.Sprintf("%s (%s)", e.Text, e.Label)
}

// MarshalJSON encodes e as [text, label].
func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Text, e.Label})
}

// UnmarshalJSON decodes the [text, label] form produced by MarshalJSON.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("ner: decode entity: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("ner: decode entity: want [text, label], got %d elements", len(pair))
	}
	e.Text, e.Label = pair[0], pair[1]
	return nil
}

// Recognizer extracts named entities from text.
//
// Implementations must be safe for concurrent use.
type Recognizer interface {
	// Recognize returns the entities of text in order of appearance. An empty
	// text yields an empty result. Errors caused by a missing model wrap
	// [ErrModelUnavailable].
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// Loader is implemented by recognisers whose model can be loaded ahead of
// the first Recognize call. Load is idempotent and returns the same error on
// every call once loading has failed.
type Loader interface {
	Load(ctx context.Context) error
}

// Load loads r's model if r implements [Loader]; otherwise it returns nil.
func Load(ctx context.Context, r Recognizer) error {
	if l, ok := r.(Loader); ok {
		return l.Load(ctx)
	}
	return nil
}
