package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumWhere returns the sum of all int64 data points of a counter whose
// attributes contain every key/value in want.
func sumWhere(t *testing.T, met *metricdata.Metrics, want map[string]string) int64 {
	t.Helper()
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 sum", met.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		match := true
		for k, v := range want {
			got, ok := dp.Attributes.Value(attribute.Key(k))
			if !ok || got.AsString() != v {
				match = false
				break
			}
		}
		if match {
			total += dp.Value
		}
	}
	return total
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"scribe.stt.duration", m.STTDuration},
		{"scribe.llm.duration", m.LLMDuration},
		{"scribe.ner.duration", m.NERDuration},
		{"scribe.pipeline.duration", m.PipelineDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 42)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

func TestRecordProviderRequestAndError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "gemini", KindLLM, "ok")
	m.RecordProviderRequest(ctx, "gemini", KindLLM, "ok")
	m.RecordProviderRequest(ctx, "gemini", KindLLM, "error")
	m.RecordProviderError(ctx, "gemini", KindLLM)

	rm := collect(t, reader)
	req := findMetric(rm, "scribe.provider.requests")
	if req == nil {
		t.Fatal("requests metric not found")
	}
	if got := sumWhere(t, req, map[string]string{"status": "ok"}); got != 2 {
		t.Errorf("ok requests = %d, want 2", got)
	}
	if got := sumWhere(t, req, map[string]string{"status": "error"}); got != 1 {
		t.Errorf("error requests = %d, want 1", got)
	}

	errs := findMetric(rm, "scribe.provider.errors")
	if errs == nil {
		t.Fatal("errors metric not found")
	}
	if got := sumWhere(t, errs, map[string]string{"provider": "gemini", "kind": "llm"}); got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}
}

func TestRecordCleaningAndValidation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCleaning(ctx, "parsed")
	m.RecordCleaning(ctx, "api_error")
	m.RecordCleaning(ctx, "api_error")
	m.RecordValidation(ctx, true)
	m.RecordValidation(ctx, false)
	m.RecordValidation(ctx, false)
	m.RecordValidationError(ctx)

	rm := collect(t, reader)

	cleaning := findMetric(rm, "scribe.cleaning.outcomes")
	if cleaning == nil {
		t.Fatal("cleaning metric not found")
	}
	if got := sumWhere(t, cleaning, map[string]string{"outcome": "api_error"}); got != 2 {
		t.Errorf("api_error outcomes = %d, want 2", got)
	}

	val := findMetric(rm, "scribe.validations")
	if val == nil {
		t.Fatal("validations metric not found")
	}
	if got := sumWhere(t, val, map[string]string{"flagged": "true"}); got != 1 {
		t.Errorf("flagged = %d, want 1", got)
	}
	if got := sumWhere(t, val, map[string]string{"flagged": "false"}); got != 2 {
		t.Errorf("not flagged = %d, want 2", got)
	}
	if got := sumWhere(t, val, map[string]string{"result": "error"}); got != 1 {
		t.Errorf("errors = %d, want 1", got)
	}
}

func TestTranscriptsInFlight(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.TranscriptsInFlight.Add(ctx, 3)
	m.TranscriptsInFlight.Add(ctx, -1)

	met := findMetric(collect(t, reader), "scribe.transcripts.in_flight")
	if met == nil {
		t.Fatal("metric not found")
	}
	if got := sumWhere(t, met, nil); got != 2 {
		t.Errorf("in flight = %d, want 2", got)
	}
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics returned different instances")
	}
}
