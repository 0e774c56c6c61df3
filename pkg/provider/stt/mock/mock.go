// Package mock provides a test double for the stt.Provider interface.
//
// Example:
//
//	p := &mock.Provider{Transcript: stt.Transcript{Text: "um hello"}}
//	tr, err := p.Transcribe(ctx, "answer.wav", stt.ModelSmall)
package mock

import (
	"context"
	"sync"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Provider.Transcribe.
type TranscribeCall struct {
	Ctx  context.Context
	Path string
	Size stt.ModelSize
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Transcript is returned by Transcribe when Err is nil.
	Transcript stt.Transcript

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeFunc, if set, takes precedence over Transcript and Err.
	TranscribeFunc func(ctx context.Context, path string, size stt.ModelSize) (stt.Transcript, error)

	// TranscribeCalls records every invocation in order.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns the configured result.
func (p *Provider) Transcribe(ctx context.Context, path string, size stt.ModelSize) (stt.Transcript, error) {
	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, Path: path, Size: size})
	fn := p.TranscribeFunc
	tr, err := p.Transcript, p.Err
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, path, size)
	}
	if err != nil {
		return stt.Transcript{}, err
	}
	return tr, nil
}

// Calls returns a copy of the recorded calls. Thread-safe.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TranscribeCall, len(p.TranscribeCalls))
	copy(out, p.TranscribeCalls)
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
