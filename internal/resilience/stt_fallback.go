package resilience

import (
	"context"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with failover across transcription
// backends, for example local whisper.cpp first and the hosted Whisper API
// second.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional transcription backend.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Names returns the backend names in failover order.
func (f *STTFallback) Names() []string { return f.group.Names() }

// Transcribe transcribes audioPath with the first healthy backend.
func (f *STTFallback) Transcribe(ctx context.Context, audioPath string, size stt.ModelSize) (stt.Transcript, error) {
	return ExecuteWithResult(ctx, f.group, func(p stt.Provider) (stt.Transcript, error) {
		return p.Transcribe(ctx, audioPath, size)
	})
}
