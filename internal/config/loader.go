package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/BalashanmugamK/AI-Powered-Scribe/internal/drift"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

// GeminiKeyEnv is consulted for the Gemini API key when the config leaves
// api_key empty.
const GeminiKeyEnv = "GENAI_API_KEY"

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"gemini", "openai", "openai-direct", "anthropic", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"stt": {"whisper", "whisper-native", "openai"},
	"ner": {"prose", "llm"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills defaults and
// environment fallbacks, and validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Server.LogFormat == "" {
		cfg.Server.LogFormat = LogFormatText
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = DefaultMaxUploadMB
	}
	if cfg.Pipeline.WhisperModel == "" {
		cfg.Pipeline.WhisperModel = string(stt.DefaultModelSize)
	}
	if cfg.Pipeline.MaxOutputTokens == 0 {
		cfg.Pipeline.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Pipeline.Comparison == "" {
		cfg.Pipeline.Comparison = drift.ModeOrdered.String()
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = DefaultConcurrency
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}

// applyEnv fills empty Gemini API keys from [GeminiKeyEnv]. Other providers
// fall back to their SDK's own environment variable.
func applyEnv(cfg *Config) {
	key := os.Getenv(GeminiKeyEnv)
	if key == "" {
		return
	}
	fill := func(e *ProviderEntry) {
		if e.Name == "gemini" && e.APIKey == "" {
			e.APIKey = key
		}
	}
	fill(&cfg.Providers.LLM)
	for i := range cfg.Providers.LLMFallbacks {
		fill(&cfg.Providers.LLMFallbacks[i])
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.LogFormat != "" && !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	if cfg.Server.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb %d must not be negative", cfg.Server.MaxUploadMB))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Providers
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	}
	if cfg.Providers.NER.Name == "" {
		errs = append(errs, errors.New("providers.ner.name is required"))
	}
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; only text input can be processed")
	}
	for i, fb := range cfg.Providers.LLMFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm_fallbacks[%d].name is required", i))
		}
		validateProviderName("llm", fb.Name)
	}
	for i, fb := range cfg.Providers.STTFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.stt_fallbacks[%d].name is required", i))
		}
		validateProviderName("stt", fb.Name)
	}
	if len(cfg.Providers.STTFallbacks) > 0 && cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt_fallbacks requires providers.stt"))
	}

	// Unknown provider names only warn; third-party factories may register them.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("ner", cfg.Providers.NER.Name)

	if cfg.Providers.LLM.Name == "gemini" && cfg.Providers.LLM.APIKey == "" {
		slog.Warn("providers.llm.api_key is empty and " + GeminiKeyEnv + " is not set; relying on GEMINI_API_KEY")
	}

	// Pipeline
	if _, err := stt.ParseModelSize(cfg.Pipeline.WhisperModel); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.whisper_model: %w", err))
	}
	if _, err := drift.ParseMode(cfg.Pipeline.Comparison); err != nil {
		errs = append(errs, fmt.Errorf("pipeline.comparison: %w", err))
	}
	if cfg.Pipeline.MaxOutputTokens < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_output_tokens %d must not be negative", cfg.Pipeline.MaxOutputTokens))
	}
	if cfg.Pipeline.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("pipeline.concurrency %d must not be negative", cfg.Pipeline.Concurrency))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or a third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
