// Command scribe transcribes recordings, removes disfluencies with a language
// model and flags transcripts whose cleaning changed a number or a named
// entity.
//
//	scribe [-config path] [-model small|base|medium] [-format json|md] [-out dir] audio...
//	scribe -text "um we sold uh 40 units"
//	scribe -serve
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/config"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/observe"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/pipeline"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/report"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/server"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitFatal   = 1
	exitFlagged = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	model := flag.String("model", "", "whisper model size: small, base or medium (overrides pipeline.whisper_model)")
	format := flag.String("format", "json", "report format: json or md")
	outDir := flag.String("out", "", "directory for report files (stdout when empty)")
	serve := flag.Bool("serve", false, "run the HTTP API")
	text := flag.String("text", "", "clean and validate literal text instead of audio")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scribe: %v\n", err)
		return exitFatal
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(newLogger(os.Stderr, cfg.Server.LogFormat, level))

	size, err := modelSize(*model, cfg)
	if err != nil {
		slog.Error("invalid model size", "err", err)
		return exitFatal
	}
	outFormat, err := report.ParseFormat(*format)
	if err != nil {
		slog.Error("invalid report format", "err", err)
		return exitFatal
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return exitFatal
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	comps, err := buildComponents(cfg, reg, size)
	if err != nil {
		slog.Error("failed to build pipeline", "err", err)
		return exitFatal
	}

	slog.Info("scribe starting",
		"version", version,
		"config", *configPath,
		"llm", cfg.Providers.LLM.Name,
		"stt", cfg.Providers.STT.Name,
		"ner", cfg.Providers.NER.Name,
		"whisper_model", size,
		"comparison", comps.validator.Mode(),
	)

	switch {
	case *serve:
		return serveHTTP(ctx, cfg, *configPath, level, comps)
	case *text != "":
		return processText(ctx, comps.pipeline, *text, outFormat, *outDir)
	case flag.NArg() > 0:
		return processFiles(ctx, comps.pipeline, flag.Args(), size, outFormat, *outDir)
	default:
		flag.Usage()
		return exitFatal
	}
}

// loadConfig reads path, falling back to [config.Default] when the file does
// not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		slog.Warn("config file not found, using defaults", "config", path)
		return cfg, nil
	}
	return cfg, err
}

func modelSize(flagValue string, cfg *config.Config) (stt.ModelSize, error) {
	if flagValue != "" {
		return stt.ParseModelSize(flagValue)
	}
	return stt.ParseModelSize(cfg.Pipeline.WhisperModel)
}

// ── Modes ─────────────────────────────────────────────────────────────────────

func processText(ctx context.Context, p *pipeline.Pipeline, text string, f report.Format, outDir string) int {
	res, err := p.ProcessText(ctx, text)
	if err != nil {
		slog.Error("processing failed", "err", err)
		return exitFatal
	}
	if err := writeReport(res, f, outDir); err != nil {
		slog.Error("write report", "err", err)
		return exitFatal
	}
	logFlagged("text input", res)
	if res.Flagged() {
		return exitFlagged
	}
	return exitOK
}

func processFiles(ctx context.Context, p *pipeline.Pipeline, paths []string, size stt.ModelSize, f report.Format, outDir string) int {
	items, err := p.ProcessBatch(ctx, paths, size)
	if err != nil {
		slog.Error("batch aborted", "err", err)
		return exitFatal
	}

	for i := range items {
		it := &items[i]
		if it.Err != nil {
			// Already logged by the pipeline.
			continue
		}
		if err := writeReport(it.Result, f, outDir); err != nil {
			slog.Error("write report", "file", it.Path, "err", err)
			it.Err = err
			continue
		}
		logFlagged(it.Path, it.Result)
	}
	return exitCode(items)
}

// exitCode reports a failure before a flag: a run where any input could not
// be processed exits 1 even when other inputs were flagged.
func exitCode(items []pipeline.Item) int {
	code := exitOK
	for _, it := range items {
		switch {
		case it.Err != nil:
			return exitFatal
		case it.Result.Flagged():
			code = exitFlagged
		}
	}
	return code
}

func logFlagged(source string, res pipeline.Result) {
	if !res.Flagged() {
		slog.Info("no factual drift detected", "source", source)
		return
	}
	reasons := make([]string, len(res.Findings))
	for i, f := range res.Findings {
		reasons[i] = f.String()
	}
	slog.Warn("transcript flagged for review", "source", source, "findings", reasons)
}

// writeReport renders res into outDir, or to stdout when outDir is empty.
func writeReport(res pipeline.Result, f report.Format, outDir string) error {
	if outDir == "" {
		return report.Render(os.Stdout, res, f)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outDir, report.FileName(res.Source, f))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Render(file, res, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	slog.Info("report written", "path", path)
	return nil
}

func serveHTTP(ctx context.Context, cfg *config.Config, configPath string, level *slog.LevelVar, comps *components) int {
	// Log level changes apply without a restart; everything else is reported.
	if _, err := os.Stat(configPath); err == nil {
		w, err := config.NewWatcher(configPath, func(d config.ConfigDiff, _ *config.Config) {
			if d.LogLevelChanged {
				level.Set(slogLevel(d.NewLogLevel))
				slog.Info("log level changed", "level", d.NewLogLevel)
			}
			if len(d.RestartRequired) > 0 {
				slog.Warn("config changed, restart required to apply", "fields", d.RestartRequired)
			}
		})
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			go w.Run(ctx)
		}
	}

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := server.New(server.Config{
		Processor:      comps.processor(),
		Cleaner:        comps.cleaner,
		Validator:      comps.validator,
		Health:         comps.health,
		MetricsHandler: observe.MetricsHandler(),
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})

	var certFile, keyFile string
	if cfg.Server.TLS != nil {
		certFile, keyFile = cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile
	}
	slog.Info("server ready, press Ctrl+C to shut down", "addr", addr)
	if err := srv.Run(ctx, addr, certFile, keyFile); err != nil {
		slog.Error("server error", "err", err)
		return exitFatal
	}
	slog.Info("goodbye")
	return exitOK
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, format config.LogFormat, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
