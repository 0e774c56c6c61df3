//go:build whisper_cpp

// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

// Compile-time assertion that NativeProvider satisfies stt.Provider.
var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider implements stt.Provider using whisper.cpp Go bindings.
// Each model size is loaded from disk at most once, on first use, and shared
// across concurrent Transcribe calls; every call gets its own context.
type NativeProvider struct {
	cfg       nativeConfig
	modelsDir string

	mu     sync.Mutex
	models map[stt.ModelSize]func() (whisperlib.Model, error)
	loaded []whisperlib.Model
}

// NewNative creates a NativeProvider that loads ggml models from modelsDir
// using the naming scheme of [ModelPath]. No model is loaded until the first
// Transcribe call for its size. The caller must call Close when done.
func NewNative(modelsDir string, opts ...NativeOption) (*NativeProvider, error) {
	if modelsDir == "" {
		return nil, errors.New("whisper: modelsDir must not be empty")
	}
	info, err := os.Stat(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("whisper: models dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("whisper: models dir %q is not a directory", modelsDir)
	}
	return &NativeProvider{
		cfg:       newNativeConfig(opts),
		modelsDir: modelsDir,
		models:    make(map[stt.ModelSize]func() (whisperlib.Model, error)),
	}, nil
}

// model returns the loaded model for size, loading it on first use. Load
// failures are remembered; a missing model file stays missing.
func (p *NativeProvider) model(size stt.ModelSize) (whisperlib.Model, error) {
	p.mu.Lock()
	load, ok := p.models[size]
	if !ok {
		path := ModelPath(p.modelsDir, size)
		load = sync.OnceValues(func() (whisperlib.Model, error) {
			start := time.Now()
			m, err := whisperlib.New(path)
			if err != nil {
				return nil, fmt.Errorf("whisper: load model %q: %w", path, err)
			}
			slog.Info("whisper model loaded", "size", size, "path", path, "took", time.Since(start))
			p.mu.Lock()
			p.loaded = append(p.loaded, m)
			p.mu.Unlock()
			return m, nil
		})
		p.models[size] = load
	}
	p.mu.Unlock()
	return load()
}

// Transcribe decodes the WAV file at audioPath, runs whisper.cpp inference
// and returns the joined segment text. Only WAV input is accepted.
func (p *NativeProvider) Transcribe(ctx context.Context, audioPath string, size stt.ModelSize) (stt.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: %w", err)
	}
	if size == "" {
		size = stt.DefaultModelSize
	}

	samples, err := readWAVFile(audioPath)
	if err != nil {
		return stt.Transcript{}, err
	}

	model, err := p.model(size)
	if err != nil {
		return stt.Transcript{}, err
	}

	// Contexts are not thread-safe; the model is.
	wctx, err := model.NewContext()
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: create context: %w", err)
	}
	if p.cfg.threads > 0 {
		wctx.SetThreads(p.cfg.threads)
	}
	if p.cfg.language != "" && p.cfg.language != "auto" {
		if err := wctx.SetLanguage(p.cfg.language); err != nil {
			slog.Warn("whisper: failed to set language, using default", "language", p.cfg.language, "err", err)
		}
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: process audio: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return stt.Transcript{}, fmt.Errorf("whisper: %w", err)
	}

	var (
		parts    []string
		segments []stt.Segment
	)
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stt.Transcript{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		segments = append(segments, stt.Segment{Start: segment.Start, End: segment.End, Text: text})
	}

	tr := stt.Transcript{
		Text:     strings.Join(parts, " "),
		Language: wctx.Language(),
		Segments: segments,
	}
	if tr.Language == "" {
		tr.Language = p.cfg.language
	}
	if n := len(segments); n > 0 {
		tr.Duration = segments[n-1].End
	}
	return tr, nil
}

// Close releases every loaded model.
func (p *NativeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for _, m := range p.loaded {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.loaded = nil
	return errors.Join(errs...)
}
