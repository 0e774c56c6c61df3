// Package mock provides a test double for the ner.Recognizer interface.
//
// Example:
//
//	r := &mock.Recognizer{ByText: map[string][]ner.Entity{
//	    "Lincoln was shot.": {{Text: "Lincoln", Label: "PERSON"}},
//	}}
package mock

import (
	"context"
	"sync"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

// Recognizer is a mock implementation of ner.Recognizer and ner.Loader.
type Recognizer struct {
	mu sync.Mutex

	// ByText maps an input text to the entities returned for it.
	ByText map[string][]ner.Entity

	// Entities is returned for texts missing from ByText.
	Entities []ner.Entity

	// Err, if non-nil, is returned by Recognize.
	Err error

	// LoadErr, if non-nil, is returned by Load and by every Recognize call.
	LoadErr error

	// RecognizeFunc, if set, takes precedence over all other fields.
	RecognizeFunc func(ctx context.Context, text string) ([]ner.Entity, error)

	// Texts records every text passed to Recognize in order.
	Texts []string

	loads int
}

var (
	_ ner.Recognizer = (*Recognizer)(nil)
	_ ner.Loader     = (*Recognizer)(nil)
)

// Recognize records the call and returns the configured entities.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]ner.Entity, error) {
	r.mu.Lock()
	r.Texts = append(r.Texts, text)
	fn := r.RecognizeFunc
	loadErr, err := r.LoadErr, r.Err
	ents, ok := r.ByText[text]
	if !ok {
		ents = r.Entities
	}
	r.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		return nil, err
	}
	return append([]ner.Entity(nil), ents...), nil
}

// Load counts the call and returns LoadErr.
func (r *Recognizer) Load(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
	return r.LoadErr
}

// LoadCalls returns how often Load was called. Thread-safe.
func (r *Recognizer) LoadCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}

// Calls returns a copy of the recorded texts. Thread-safe.
func (r *Recognizer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Texts...)
}
