package whisper

import "errors"

// ErrNativeUnavailable is returned by [NewNative] in binaries built without
// the whisper_cpp build tag.
var ErrNativeUnavailable = errors.New("whisper: native whisper.cpp support not compiled in (build with -tags whisper_cpp)")

// nativeConfig holds the settings shared by both NativeProvider builds.
type nativeConfig struct {
	language string
	threads  uint
}

// NativeOption is a functional option for configuring a NativeProvider.
type NativeOption func(*nativeConfig)

// WithNativeLanguage sets the language code for transcription (e.g., "en").
// Defaults to "en". "auto" lets whisper.cpp detect the language.
func WithNativeLanguage(lang string) NativeOption {
	return func(c *nativeConfig) { c.language = lang }
}

// WithNativeThreads sets the number of CPU threads per inference. Zero keeps
// the whisper.cpp default.
func WithNativeThreads(n uint) NativeOption {
	return func(c *nativeConfig) { c.threads = n }
}

func newNativeConfig(opts []NativeOption) nativeConfig {
	c := nativeConfig{language: defaultLanguage}
	for _, o := range opts {
		o(&c)
	}
	return c
}
