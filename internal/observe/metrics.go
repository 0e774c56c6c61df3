// Package observe provides application-wide observability primitives for
// scribe: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] and served by
// [MetricsHandler]. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all scribe metrics.
const meterName = "github.com/BalashanmugamK/AI-Powered-Scribe"

// Provider kinds used as the "kind" attribute.
const (
	KindSTT = "stt"
	KindLLM = "llm"
	KindNER = "ner"
)

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks cleaning (text generation) latency.
	LLMDuration metric.Float64Histogram

	// NERDuration tracks entity recognition latency for one text.
	NERDuration metric.Float64Histogram

	// PipelineDuration tracks end-to-end latency of one transcript.
	PipelineDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider calls. Attributes: provider, kind, status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Attributes: provider, kind.
	ProviderErrors metric.Int64Counter

	// CleaningOutcomes counts cleaning calls by how the record was produced.
	// Attribute: outcome (see cleaner.Outcome).
	CleaningOutcomes metric.Int64Counter

	// Validations counts drift validations. Attributes: flagged ("true",
	// "false") or result "error" when validation could not run.
	Validations metric.Int64Counter

	// --- Gauges ---

	// TranscriptsInFlight tracks transcripts currently inside the pipeline.
	TranscriptsInFlight metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Attributes:
	// method, route, status.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Local
// whisper inference on long answers easily takes tens of seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&met.STTDuration, "scribe.stt.duration", "Latency of speech-to-text transcription."},
		{&met.LLMDuration, "scribe.llm.duration", "Latency of transcript cleaning by the language model."},
		{&met.NERDuration, "scribe.ner.duration", "Latency of named-entity recognition per text."},
		{&met.PipelineDuration, "scribe.pipeline.duration", "End-to-end latency of transcribe, clean and validate."},
	}
	for _, h := range histograms {
		if *h.dst, err = m.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(latencyBuckets...),
		); err != nil {
			return nil, err
		}
	}

	if met.ProviderRequests, err = m.Int64Counter("scribe.provider.requests",
		metric.WithDescription("Total provider requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("scribe.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.CleaningOutcomes, err = m.Int64Counter("scribe.cleaning.outcomes",
		metric.WithDescription("Cleaning calls by outcome (parsed, embedded, parser_fallback, non_object, api_error)."),
	); err != nil {
		return nil, err
	}
	if met.Validations, err = m.Int64Counter("scribe.validations",
		metric.WithDescription("Drift validations by review flag, or result=error when validation could not run."),
	); err != nil {
		return nil, err
	}

	if met.TranscriptsInFlight, err = m.Int64UpDownCounter("scribe.transcripts.in_flight",
		metric.WithDescription("Number of transcripts currently being processed."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("scribe.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records a provider request with the standard
// attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordCleaning records one cleaning call with its outcome.
func (m *Metrics) RecordCleaning(ctx context.Context, outcome string) {
	m.CleaningOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordValidation records a completed validation and its review flag.
func (m *Metrics) RecordValidation(ctx context.Context, flagged bool) {
	m.Validations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", "ok"),
		attribute.String("flagged", strconv.FormatBool(flagged)),
	))
}

// RecordValidationError records a validation that could not run.
func (m *Metrics) RecordValidationError(ctx context.Context) {
	m.Validations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
}
