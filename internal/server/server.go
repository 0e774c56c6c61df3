// Package server exposes the clean-then-validate pipeline over HTTP.
//
// Routes:
//
//	POST /v1/clean         {"text": "..."}                  -> cleaning record
//	POST /v1/validate      {"original": "...", "cleaned": "..."} -> validation report
//	POST /v1/transcripts   multipart "audio" file, optional "model" field
//	                       ?download=json|md returns an attachment
//	GET  /healthz, /readyz liveness and readiness
//	GET  /metrics          Prometheus exposition
//
// Errors are JSON objects of the form {"error": "..."}. A validation that
// cannot run because the entity model is unavailable is a 503, never a
// report without drift.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/health"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/pipeline"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

const (
	// DefaultMaxUploadBytes caps uploads when Config.MaxUploadBytes is zero.
	DefaultMaxUploadBytes = 64 << 20

	// maxJSONBytes caps the body of the text endpoints.
	maxJSONBytes = 1 << 20

	shutdownTimeout = 15 * time.Second
)

// Processor runs the full pipeline on an audio file. *pipeline.Pipeline
// satisfies it.
type Processor interface {
	Process(ctx context.Context, audioPath string, size stt.ModelSize) (pipeline.Result, error)
}

// Config holds the collaborators of a [Server].
type Config struct {
	// Processor handles /v1/transcripts. When nil the route answers 503.
	Processor Processor

	// Cleaner handles /v1/clean.
	Cleaner pipeline.Cleaner

	// Validator handles /v1/validate.
	Validator pipeline.Validator

	// Health serves /healthz and /readyz. Defaults to a handler without
	// readiness checks.
	Health *health.Handler

	// MetricsHandler serves /metrics when non-nil.
	MetricsHandler http.Handler

	// Metrics records HTTP request durations. Defaults to
	// observe.DefaultMetrics().
	Metrics *observe.Metrics

	// MaxUploadBytes caps an uploaded audio file. Default:
	// [DefaultMaxUploadBytes].
	MaxUploadBytes int64

	// TempDir receives uploaded audio while it is processed. Default:
	// os.TempDir().
	TempDir string
}

// Server is the HTTP API. Create it with [New].
type Server struct {
	cfg     Config
	handler http.Handler
}

// New builds the route table.
func New(cfg Config) *Server {
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	s := &Server{cfg: cfg}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/clean", s.handleClean)
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("POST /v1/transcripts", s.handleTranscript)
	cfg.Health.Register(mux)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}
	s.handler = observe.Middleware(cfg.Metrics)(mux)
	return s
}

// Handler returns the instrumented route table.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves on addr until ctx is cancelled, then shuts down gracefully,
// giving in-flight requests up to 15 seconds. TLS is used when both certFile
// and keyFile are set.
func (s *Server) Run(ctx context.Context, addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr, "tls", certFile != "")
		var err error
		if certFile != "" && keyFile != "" {
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return <-errCh
}
