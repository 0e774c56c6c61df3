package drift

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
)

// EntityComparison compares the named entities of two texts. Entities
// serialise as [text, label] pairs.
type EntityComparison struct {
	OriginalEntities []ner.Entity `json:"original_entities"`
	CleanedEntities  []ner.Entity `json:"cleaned_entities"`
	Mismatch         bool         `json:"mismatch"`
}

// CompareEntities runs the recogniser once on each text and compares the
// (text, label) pairs under the validator's mode. A changed label, changed
// surface text or changed count is a mismatch.
func (v *Validator) CompareEntities(ctx context.Context, original, cleaned string) (EntityComparison, error) {
	a, err := v.recognize(ctx, original)
	if err != nil {
		return EntityComparison{}, fmt.Errorf("drift: original entities: %w", err)
	}
	b, err := v.recognize(ctx, cleaned)
	if err != nil {
		return EntityComparison{}, fmt.Errorf("drift: cleaned entities: %w", err)
	}
	return EntityComparison{
		OriginalEntities: a,
		CleanedEntities:  b,
		Mismatch:         !equalSeq(a, b, v.mode),
	}, nil
}

func (v *Validator) recognize(ctx context.Context, text string) ([]ner.Entity, error) {
	start := time.Now()
	ents, err := v.ner.Recognize(ctx, text)
	v.metrics.NERDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", v.recognizerName)))
	if err != nil {
		v.metrics.RecordProviderRequest(ctx, v.recognizerName, observe.KindNER, "error")
		v.metrics.RecordProviderError(ctx, v.recognizerName, observe.KindNER)
		return nil, err
	}
	v.metrics.RecordProviderRequest(ctx, v.recognizerName, observe.KindNER, "ok")
	if ents == nil {
		ents = []ner.Entity{}
	}
	return ents, nil
}
