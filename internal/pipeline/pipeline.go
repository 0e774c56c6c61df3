// Package pipeline is the composition root of scribe: it transcribes an audio
// file, cleans the transcript and validates the cleaned text for factual
// drift.
//
// A single [Pipeline.Process] call is strictly sequential. The pipeline holds
// no state of its own beyond its collaborators; [Pipeline.ProcessBatch] runs
// several independent calls with bounded parallelism.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/cleaner"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/drift"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

// DefaultConcurrency bounds [Pipeline.ProcessBatch] when no
// [WithConcurrency] option is given.
const DefaultConcurrency = 4

// Cleaner removes disfluencies from a transcript. Cleaning never fails.
// *cleaner.Cleaner satisfies it.
type Cleaner interface {
	Clean(ctx context.Context, raw string) cleaner.Record
}

// Validator checks a cleaned transcript for factual drift. *drift.Validator
// satisfies it.
type Validator interface {
	Validate(ctx context.Context, original, cleaned string) (drift.Report, error)
}

// Result is everything produced for one input.
type Result struct {
	// Source is the audio path, or empty for text input.
	Source string `json:"source,omitempty"`

	Transcript stt.Transcript `json:"transcript"`
	Cleaning   cleaner.Record `json:"cleaning"`
	Validation drift.Report   `json:"validation"`

	// Findings explains the drift behind a review flag. Empty when the
	// transcript was not flagged.
	Findings []drift.Finding `json:"findings"`
}

// Flagged reports whether the result needs human review.
func (r Result) Flagged() bool { return r.Validation.FlagForReview }

// Option is a functional option for configuring a [Pipeline].
type Option func(*Pipeline)

// WithModelSize sets the transcription model size used when a call does not
// name one. Default: [stt.DefaultModelSize].
func WithModelSize(size stt.ModelSize) Option {
	return func(p *Pipeline) { p.size = size }
}

// WithConcurrency bounds the number of inputs [Pipeline.ProcessBatch]
// processes at once. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithMetrics records into m instead of observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithSTTName sets the transcription provider label used in metrics.
func WithSTTName(name string) Option {
	return func(p *Pipeline) { p.sttName = name }
}

// Pipeline chains transcription, cleaning and drift validation. It is safe
// for concurrent use when its collaborators are.
type Pipeline struct {
	stt         stt.Provider
	cleaner     Cleaner
	validator   Validator
	size        stt.ModelSize
	concurrency int
	sttName     string
	metrics     *observe.Metrics
}

// New returns a Pipeline. transcriber may be nil when only
// [Pipeline.ProcessText] is used.
func New(transcriber stt.Provider, c Cleaner, v Validator, opts ...Option) *Pipeline {
	p := &Pipeline{
		stt:         transcriber,
		cleaner:     c,
		validator:   v,
		size:        stt.DefaultModelSize,
		concurrency: DefaultConcurrency,
		sttName:     "stt",
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// ModelSize returns the default transcription model size.
func (p *Pipeline) ModelSize() stt.ModelSize { return p.size }

// Process transcribes the audio file at audioPath with the given model size
// (the pipeline default when empty), cleans the transcript and validates the
// cleaned text against it.
//
// A transcription failure is returned as an error. A validation failure is
// returned as an error together with the partial result, whose Validation is
// the zero report and must not be read as "no drift".
func (p *Pipeline) Process(ctx context.Context, audioPath string, size stt.ModelSize) (Result, error) {
	if size == "" {
		size = p.size
	}
	ctx, span := observe.StartSpan(ctx, "pipeline.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("audio.file", filepath.Base(audioPath)),
		attribute.String("stt.model_size", string(size)),
	)

	p.metrics.TranscriptsInFlight.Add(ctx, 1)
	defer p.metrics.TranscriptsInFlight.Add(ctx, -1)
	start := time.Now()
	defer func() {
		p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(observe.Attr("input", "audio")))
	}()

	if p.stt == nil {
		err := fmt.Errorf("pipeline: transcribe %s: no transcription provider configured", audioPath)
		observe.SpanError(span, err)
		return Result{Source: audioPath}, err
	}

	tr, err := p.transcribe(ctx, audioPath, size)
	if err != nil {
		observe.SpanError(span, err)
		return Result{Source: audioPath}, err
	}

	res, err := p.cleanAndValidate(ctx, tr)
	res.Source = audioPath
	if err != nil {
		observe.SpanError(span, err)
	}
	return res, err
}

// ProcessText cleans and validates text that was already transcribed.
func (p *Pipeline) ProcessText(ctx context.Context, text string) (Result, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.process_text")
	defer span.End()

	start := time.Now()
	defer func() {
		p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(observe.Attr("input", "text")))
	}()

	res, err := p.cleanAndValidate(ctx, stt.Transcript{Text: text})
	if err != nil {
		observe.SpanError(span, err)
	}
	return res, err
}

func (p *Pipeline) transcribe(ctx context.Context, audioPath string, size stt.ModelSize) (stt.Transcript, error) {
	start := time.Now()
	tr, err := p.stt.Transcribe(ctx, audioPath, size)
	p.metrics.STTDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("provider", p.sttName), observe.Attr("model_size", string(size))))
	if err != nil {
		p.metrics.RecordProviderRequest(ctx, p.sttName, observe.KindSTT, "error")
		p.metrics.RecordProviderError(ctx, p.sttName, observe.KindSTT)
		return stt.Transcript{}, fmt.Errorf("pipeline: transcribe %s: %w", audioPath, err)
	}
	p.metrics.RecordProviderRequest(ctx, p.sttName, observe.KindSTT, "ok")
	observe.Logger(ctx).Debug("transcribed audio",
		"file", filepath.Base(audioPath),
		"model_size", size,
		"chars", len(tr.Text),
		"elapsed", time.Since(start),
	)
	return tr, nil
}

// cleanAndValidate validates the cleaned text against the transcript text
// itself rather than against the model's echo of it, so a model that rewrites
// the "original" field cannot hide drift.
func (p *Pipeline) cleanAndValidate(ctx context.Context, tr stt.Transcript) (Result, error) {
	res := Result{Transcript: tr, Findings: []drift.Finding{}}
	res.Cleaning = p.cleaner.Clean(ctx, tr.Text)

	report, err := p.validator.Validate(ctx, tr.Text, res.Cleaning.Cleaned)
	if err != nil {
		return res, fmt.Errorf("pipeline: validate: %w", err)
	}
	res.Validation = report
	res.Findings = drift.Explain(report)

	if report.FlagForReview {
		observe.Logger(ctx).Warn("transcript flagged for review",
			"numbers_mismatch", report.Numbers.Mismatch,
			"entities_mismatch", report.Entities.Mismatch,
			"findings", len(res.Findings),
		)
	}
	return res, nil
}

// Item is the outcome of one input of a batch.
type Item struct {
	Path   string
	Result Result
	Err    error
}

// ProcessBatch processes every path with at most the configured number of
// concurrent calls. Items are returned in input order. A failing input does
// not stop the others; only cancellation of ctx does, in which case the
// returned error is the context error and unstarted items carry it too.
// Cancellation is reported even when every item had already started.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string, size stt.ModelSize) ([]Item, error) {
	items := make([]Item, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, path := range paths {
		items[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return err
			}
			res, err := p.Process(gctx, path, size)
			items[i].Result, items[i].Err = res, err
			if err != nil {
				slog.Error("pipeline: processing failed", "file", path, "err", err)
			}
			// Per-item failures are reported in the item; only cancellation
			// aborts the batch.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, err
	}
	// Items already running when ctx was cancelled report the error
	// themselves and leave g.Wait nil.
	return items, ctx.Err()
}
