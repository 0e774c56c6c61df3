//go:build !whisper_cpp

package whisper

import (
	"context"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider is a placeholder in builds without the whisper_cpp tag.
type NativeProvider struct{}

// NewNative always fails with [ErrNativeUnavailable] in this build.
func NewNative(string, ...NativeOption) (*NativeProvider, error) {
	return nil, ErrNativeUnavailable
}

// Transcribe always fails with [ErrNativeUnavailable].
func (*NativeProvider) Transcribe(context.Context, string, stt.ModelSize) (stt.Transcript, error) {
	return stt.Transcript{}, ErrNativeUnavailable
}

// Close is a no-op.
func (*NativeProvider) Close() error { return nil }
