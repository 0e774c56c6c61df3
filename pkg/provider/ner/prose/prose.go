// Package prose provides an offline named-entity recogniser backed by
// github.com/jdkato/prose/v2, a pure-Go NLP library with an averaged
// perceptron tagger and an embedded English NER model.
//
// The model is initialised at most once per Recognizer, either eagerly via
// Load or on the first Recognize call. Initialisation errors are remembered
// and returned to every later caller wrapped in ner.ErrModelUnavailable.
//
// The embedded model labels PERSON and GPE entities. A custom model trained
// with prose can be loaded from disk with [WithModelDir].
package prose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	prose "github.com/jdkato/prose/v2"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

// warmupText is run through the pipeline once during loading so that a
// broken embedded model fails at load time rather than mid-request.
const warmupText = "Ada Lovelace was born in London."

var (
	_ ner.Recognizer = (*Recognizer)(nil)
	_ ner.Loader     = (*Recognizer)(nil)
)

// Option is a functional option for configuring a Recognizer.
type Option func(*Recognizer)

// WithModelDir loads a prose model from dir instead of the embedded default.
func WithModelDir(dir string) Option {
	return func(r *Recognizer) { r.modelDir = dir }
}

// WithLabels restricts results to the given labels. By default every label
// the model produces is returned.
func WithLabels(labels ...string) Option {
	return func(r *Recognizer) {
		r.labels = make(map[string]struct{}, len(labels))
		for _, l := range labels {
			r.labels[l] = struct{}{}
		}
	}
}

// Recognizer implements ner.Recognizer with prose.
type Recognizer struct {
	modelDir string
	labels   map[string]struct{}

	load func() (*prose.Model, error)
}

// New creates a Recognizer. No model is loaded until Load or Recognize.
func New(opts ...Option) *Recognizer {
	r := &Recognizer{}
	for _, o := range opts {
		o(r)
	}
	r.load = sync.OnceValues(r.loadModel)
	return r
}

// Load initialises the model. It is safe to call concurrently and repeatedly.
func (r *Recognizer) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.load()
	return err
}

// Recognize returns the entities of text in order of appearance.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]ner.Entity, error) {
	model, err := r.load()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prose: %w", err)
	}
	if text == "" {
		return []ner.Entity{}, nil
	}

	doc, err := newDocument(text, model)
	if err != nil {
		return nil, fmt.Errorf("prose: analyse text: %w", err)
	}

	ents := doc.Entities()
	out := make([]ner.Entity, 0, len(ents))
	for _, e := range ents {
		if r.labels != nil {
			if _, ok := r.labels[e.Label]; !ok {
				continue
			}
		}
		out = append(out, ner.Entity{Text: e.Text, Label: e.Label})
	}
	return out, nil
}

// loadModel runs once. A nil model means the embedded default.
func (r *Recognizer) loadModel() (model *prose.Model, err error) {
	start := time.Now()
	defer func() {
		// prose panics on corrupt model data.
		if p := recover(); p != nil {
			model, err = nil, fmt.Errorf("%w: prose: %v", ner.ErrModelUnavailable, p)
		}
		if err != nil {
			slog.Error("prose: entity model failed to load", "model_dir", r.modelDir, "err", err)
			return
		}
		slog.Info("prose: entity model loaded", "model_dir", r.modelDir, "took", time.Since(start))
	}()

	if r.modelDir != "" {
		info, statErr := os.Stat(r.modelDir)
		if statErr != nil {
			return nil, fmt.Errorf("%w: prose: %w", ner.ErrModelUnavailable, statErr)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: prose: %q is not a directory", ner.ErrModelUnavailable, r.modelDir)
		}
		model = prose.ModelFromDisk(r.modelDir)
		if model == nil {
			return nil, fmt.Errorf("%w: prose: no model in %q", ner.ErrModelUnavailable, r.modelDir)
		}
	}

	if _, err := newDocument(warmupText, model); err != nil {
		return nil, fmt.Errorf("%w: prose: warm-up: %w", ner.ErrModelUnavailable, err)
	}
	return model, nil
}

func newDocument(text string, model *prose.Model) (*prose.Document, error) {
	var opts []prose.DocOpt
	if model != nil {
		opts = append(opts, prose.UsingModel(model))
	}
	doc, err := prose.NewDocument(text, opts...)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("nil document")
	}
	return doc, nil
}
