// Package drift detects factual drift between an original transcript and its
// cleaned form.
//
// Two axes are compared: numeric tokens, extracted locally with a regular
// expression, and named entities, delegated to a [ner.Recognizer]. Any
// difference on either axis flags the pair for human review. There is no
// weighting and no partial credit.
//
// By default comparison is order-sensitive, so "3 cats and 2 dogs" versus
// "2 cats and 3 dogs" is drift. [ModeMultiset] relaxes this to "same tokens,
// same counts".
//
// A validator whose recogniser cannot load its model returns an error wrapping
// ner.ErrModelUnavailable. It never reports "no drift" for a check that did
// not run.
package drift

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

// Report is the result of validating one original/cleaned pair.
type Report struct {
	Numbers       NumericComparison `json:"numbers"`
	Entities      EntityComparison  `json:"entities"`
	FlagForReview bool              `json:"flag_for_review"`
}

// Option is a functional option for configuring a [Validator].
type Option func(*Validator)

// WithMode sets the comparison mode. Default: [ModeOrdered].
func WithMode(m Mode) Option {
	return func(v *Validator) { v.mode = m }
}

// WithEagerLoad makes [New] load the recogniser's model and fail when it
// cannot, instead of deferring the failure to the first Validate call.
func WithEagerLoad() Option {
	return func(v *Validator) { v.eager = true }
}

// WithMetrics records into m instead of observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(v *Validator) { v.metrics = m }
}

// WithRecognizerName sets the recogniser label used in metrics.
func WithRecognizerName(name string) Option {
	return func(v *Validator) { v.recognizerName = name }
}

// Validator compares original and cleaned text for factual drift. It is safe
// for concurrent use when its recogniser is.
type Validator struct {
	ner            ner.Recognizer
	recognizerName string
	mode           Mode
	eager          bool
	metrics        *observe.Metrics
}

// New returns a Validator using recognizer for entity extraction. It returns
// an error only when [WithEagerLoad] is set and the model fails to load.
func New(recognizer ner.Recognizer, opts ...Option) (*Validator, error) {
	v := &Validator{
		ner:            recognizer,
		recognizerName: "ner",
		mode:           ModeOrdered,
	}
	for _, o := range opts {
		o(v)
	}
	if v.metrics == nil {
		v.metrics = observe.DefaultMetrics()
	}
	if v.eager {
		if err := ner.Load(context.Background(), recognizer); err != nil {
			return nil, fmt.Errorf("drift: load entity model: %w", err)
		}
	}
	return v, nil
}

// Mode returns the validator's comparison mode.
func (v *Validator) Mode() Mode { return v.mode }

// CompareNumbers compares the numbers of original and cleaned under the
// validator's mode.
func (v *Validator) CompareNumbers(original, cleaned string) NumericComparison {
	return compareNumbers(original, cleaned, v.mode)
}

// Validate compares original and cleaned on numbers and entities.
// FlagForReview is set when either axis mismatches. If entity recognition
// cannot run, Validate returns an error and a zero Report.
func (v *Validator) Validate(ctx context.Context, original, cleaned string) (Report, error) {
	ctx, span := observe.StartSpan(ctx, "drift.validate")
	defer span.End()

	numbers := v.CompareNumbers(original, cleaned)
	entities, err := v.CompareEntities(ctx, original, cleaned)
	if err != nil {
		observe.SpanError(span, err)
		v.metrics.RecordValidationError(ctx)
		return Report{}, fmt.Errorf("drift: validate: %w", err)
	}

	r := Report{
		Numbers:       numbers,
		Entities:      entities,
		FlagForReview: numbers.Mismatch || entities.Mismatch,
	}
	v.metrics.RecordValidation(ctx, r.FlagForReview)
	span.SetAttributes(attribute.Bool("drift.flag_for_review", r.FlagForReview))
	return r, nil
}
