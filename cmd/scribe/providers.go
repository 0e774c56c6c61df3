package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/cleaner"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/config"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/drift"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/health"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/pipeline"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/resilience"
	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/server"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm/anyllm"
	oaillm "github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/llm/openai"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner/llmner"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner/prose"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
	oaistt "github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt/openai"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt/whisper"
)

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// Every any-llm-go backend takes an optional APIKey and BaseURL. Ollama
	// and the llama servers simply leave the key empty.
	for _, providerName := range anyllm.SupportedProviders {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// openai-direct uses the official SDK, which forwards top_p and n.
	reg.RegisterLLM("openai-direct", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		if org := entry.OptString("organization"); org != "" {
			opts = append(opts, oaillm.WithOrganization(org))
		}
		if secs := entry.OptInt("timeout_seconds"); secs > 0 {
			opts = append(opts, oaillm.WithTimeout(time.Duration(secs)*time.Second))
		}
		return oaillm.New(apiKey(entry, openAIKeyEnv), entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if secs := entry.OptInt("timeout_seconds"); secs > 0 {
			opts = append(opts, whisper.WithTimeout(time.Duration(secs)*time.Second))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("whisper-native", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.NativeOption
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, whisper.WithNativeLanguage(lang))
		}
		if n := entry.OptInt("threads"); n > 0 {
			opts = append(opts, whisper.WithNativeThreads(uint(n)))
		}
		return whisper.NewNative(modelsDir(entry), opts...)
	})

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []oaistt.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, oaistt.WithModel(entry.Model))
		}
		if lang := entry.OptString("language"); lang != "" {
			opts = append(opts, oaistt.WithLanguage(lang))
		}
		return oaistt.New(apiKey(entry, openAIKeyEnv), opts...)
	})

	// ── NER ───────────────────────────────────────────────────────────────────

	reg.RegisterNER("prose", func(entry config.ProviderEntry, _ config.NERDeps) (ner.Recognizer, error) {
		var opts []prose.Option
		if dir := entry.OptString("model_dir"); dir != "" {
			opts = append(opts, prose.WithModelDir(dir))
		}
		return prose.New(opts...), nil
	})

	reg.RegisterNER("llm", func(entry config.ProviderEntry, deps config.NERDeps) (ner.Recognizer, error) {
		if deps.LLM == nil {
			return nil, errors.New("llm entity recogniser needs a generation provider")
		}
		var opts []llmner.Option
		if n := entry.OptInt("max_tokens"); n > 0 {
			opts = append(opts, llmner.WithMaxTokens(n))
		}
		return llmner.New(deps.LLM, opts...), nil
	})

	for _, kind := range []string{"llm", "stt", "ner"} {
		for _, name := range reg.Names(kind) {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// openAIKeyEnv is read when an OpenAI SDK entry has no api_key; any-llm-go
// backends read their own variables.
const openAIKeyEnv = "OPENAI_API_KEY"

func apiKey(entry config.ProviderEntry, env string) string {
	if entry.APIKey != "" {
		return entry.APIKey
	}
	return os.Getenv(env)
}

// modelsDir is the directory holding ggml-<size>.bin files for whisper-native.
func modelsDir(entry config.ProviderEntry) string {
	if dir := entry.OptString("models_dir"); dir != "" {
		return dir
	}
	return "models"
}

// ── Component assembly ────────────────────────────────────────────────────────

// components is the assembled pipeline and its parts.
type components struct {
	stt       stt.Provider
	cleaner   *cleaner.Cleaner
	validator *drift.Validator
	pipeline  *pipeline.Pipeline
	health    *health.Handler
}

// processor returns the pipeline, or nil when no transcription provider is
// configured so the HTTP API can refuse uploads.
func (c *components) processor() server.Processor {
	if c.stt == nil {
		return nil
	}
	return c.pipeline
}

// buildComponents instantiates the configured providers, wraps them with
// failover when fallbacks are configured, and assembles the pipeline.
func buildComponents(cfg *config.Config, reg *config.Registry, size stt.ModelSize) (*components, error) {
	p := cfg.Providers

	// ── LLM ───────────────────────────────────────────────────────────────────
	gen, err := reg.CreateLLM(p.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm provider %q: %w", p.LLM.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", p.LLM.Name, "model", p.LLM.Model)
	if len(p.LLMFallbacks) > 0 {
		fb := resilience.NewLLMFallback(gen, p.LLM.Name, resilience.FallbackConfig{})
		for _, e := range p.LLMFallbacks {
			alt, err := reg.CreateLLM(e)
			if err != nil {
				return nil, fmt.Errorf("llm fallback %q: %w", e.Name, err)
			}
			fb.AddFallback(e.Name, alt)
		}
		slog.Info("llm failover enabled", "order", fb.Names())
		gen = fb
	}

	// ── STT ───────────────────────────────────────────────────────────────────
	var transcriber stt.Provider
	var checks []health.Checker
	if p.STT.Name != "" {
		transcriber, err = reg.CreateSTT(p.STT)
		if errors.Is(err, whisper.ErrNativeUnavailable) {
			// Text mode and the text endpoints still work.
			slog.Warn("transcription disabled", "name", p.STT.Name, "err", err)
			transcriber, err = nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stt provider %q: %w", p.STT.Name, err)
		}
	}
	if transcriber != nil {
		slog.Info("provider created", "kind", "stt", "name", p.STT.Name)
		if p.STT.Name == "whisper-native" {
			checks = append(checks, health.Files("whisper_model", whisper.ModelPath(modelsDir(p.STT), size)))
		}
		if len(p.STTFallbacks) > 0 {
			fb := resilience.NewSTTFallback(transcriber, p.STT.Name, resilience.FallbackConfig{})
			for _, e := range p.STTFallbacks {
				alt, err := reg.CreateSTT(e)
				if err != nil {
					return nil, fmt.Errorf("stt fallback %q: %w", e.Name, err)
				}
				fb.AddFallback(e.Name, alt)
			}
			slog.Info("stt failover enabled", "order", fb.Names())
			transcriber = fb
		}
	}

	// ── NER ───────────────────────────────────────────────────────────────────
	recognizer, err := reg.CreateNER(p.NER, config.NERDeps{LLM: gen})
	if err != nil {
		return nil, fmt.Errorf("ner provider %q: %w", p.NER.Name, err)
	}
	slog.Info("provider created", "kind", "ner", "name", p.NER.Name)
	checks = append(checks, health.EntityModel(recognizer))

	// ── Pipeline ──────────────────────────────────────────────────────────────
	mode, err := drift.ParseMode(cfg.Pipeline.Comparison)
	if err != nil {
		return nil, err
	}
	c := cleaner.New(gen,
		cleaner.WithMaxTokens(cfg.Pipeline.MaxOutputTokens),
		cleaner.WithProviderName(p.LLM.Name),
	)
	vopts := []drift.Option{drift.WithMode(mode), drift.WithRecognizerName(p.NER.Name)}
	if cfg.Pipeline.EagerLoadNER {
		vopts = append(vopts, drift.WithEagerLoad())
	}
	v, err := drift.New(recognizer, vopts...)
	if err != nil {
		return nil, err
	}

	return &components{
		stt:       transcriber,
		cleaner:   c,
		validator: v,
		pipeline: pipeline.New(transcriber, c, v,
			pipeline.WithModelSize(size),
			pipeline.WithConcurrency(cfg.Pipeline.Concurrency),
			pipeline.WithSTTName(p.STT.Name),
		),
		health: health.New(checks...),
	}, nil
}
