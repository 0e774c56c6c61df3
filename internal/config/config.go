// Package config provides the configuration schema, loader, and provider
// registry for scribe.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == LogFormatText || f == LogFormatJSON
}

// Defaults applied by [LoadFromReader] and [Default] to unset fields.
const (
	DefaultMaxUploadMB     = 64
	DefaultServiceName     = "scribe"
	DefaultMaxOutputTokens = 1024
	DefaultConcurrency     = 4
)

// Config is the root configuration structure for scribe.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP API listens on (e.g., ":8080").
	// Empty means the API is only started by the -serve flag with ":8080".
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFormat selects text or JSON log output.
	LogFormat LogFormat `yaml:"log_format"`

	// MaxUploadMB caps the size of an uploaded audio file.
	MaxUploadMB int `yaml:"max_upload_mb"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each entry selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	// LLM is the primary generation provider used for cleaning.
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallbacks are tried in order when the primary provider fails or its
	// circuit breaker is open.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`

	// STT transcribes audio. Optional when only text input is processed.
	STT ProviderEntry `yaml:"stt"`

	// STTFallbacks are tried in order when the primary transcription
	// provider fails.
	STTFallbacks []ProviderEntry `yaml:"stt_fallbacks"`

	// NER recognises named entities for drift validation.
	NER ProviderEntry `yaml:"ner"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gemini", "whisper-native").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gemini-2.0-flash").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// OptString returns the string option key, or "" if it is absent or not a
// string.
func (e ProviderEntry) OptString(key string) string {
	s, _ := e.Options[key].(string)
	return s
}

// OptInt returns the integer option key, or 0 if it is absent or not a
// whole number.
func (e ProviderEntry) OptInt(key string) int {
	switch v := e.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return 0
}

// PipelineConfig tunes the clean-then-validate pipeline.
type PipelineConfig struct {
	// WhisperModel is the default transcription model size: small, base or
	// medium.
	WhisperModel string `yaml:"whisper_model"`

	// MaxOutputTokens caps the cleaning response.
	MaxOutputTokens int `yaml:"max_output_tokens"`

	// Comparison selects how drift sequences are compared: ordered or
	// multiset.
	Comparison string `yaml:"comparison"`

	// Concurrency bounds how many files are processed at once.
	Concurrency int `yaml:"concurrency"`

	// EagerLoadNER loads the entity model at startup so a missing model
	// fails fast.
	EagerLoadNER bool `yaml:"eager_load_ner"`
}

// TelemetryConfig configures OpenTelemetry.
type TelemetryConfig struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when no config file exists: Gemini
// for cleaning, local whisper.cpp for transcription, and entity recognition
// through the cleaning model. The prose recogniser is opt-in: its embedded
// model labels only PERSON and GPE and is unstable on disfluent speech.
func Default() *Config {
	cfg := &Config{
		Providers: ProvidersConfig{
			LLM: ProviderEntry{Name: "gemini", Model: "gemini-2.0-flash"},
			STT: ProviderEntry{Name: "whisper-native", Options: map[string]any{"models_dir": "models"}},
			NER: ProviderEntry{Name: "llm"},
		},
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg
}
