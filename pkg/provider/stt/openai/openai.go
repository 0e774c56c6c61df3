// Package openai provides an STT provider backed by the hosted OpenAI Whisper
// transcription API, via github.com/sashabaranov/go-openai.
//
// The hosted API serves a single model ("whisper-1" by default), so the
// requested [stt.ModelSize] is ignored. Any OpenAI-compatible transcription
// endpoint (Groq, a local faster-whisper server) works through [WithBaseURL].
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
)

const defaultModel = "whisper-1"

var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*options)

type options struct {
	baseURL  string
	model    string
	language string
}

// WithBaseURL overrides the API base URL (e.g., "https://api.groq.com/openai/v1").
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithModel overrides the transcription model. Defaults to "whisper-1".
func WithModel(m string) Option {
	return func(o *options) { o.model = m }
}

// WithLanguage sets the ISO-639-1 input language hint (e.g., "en").
func WithLanguage(lang string) Option {
	return func(o *options) { o.language = lang }
}

// Provider implements stt.Provider using the OpenAI audio transcription API.
type Provider struct {
	client   *openai.Client
	model    string
	language string
}

// New creates a Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("openai stt: apiKey must not be empty")
	}
	o := options{model: defaultModel}
	for _, fn := range opts {
		fn(&o)
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	return &Provider{
		client:   openai.NewClientWithConfig(cfg),
		model:    o.model,
		language: o.language,
	}, nil
}

// Transcribe uploads the audio file and returns the verbose transcript.
func (p *Provider) Transcribe(ctx context.Context, audioPath string, _ stt.ModelSize) (stt.Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("openai stt: open audio: %w", err)
	}
	defer f.Close()

	req := openai.AudioRequest{
		Model:    p.model,
		FilePath: filepath.Base(audioPath),
		Reader:   f,
		Language: p.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
	resp, err := p.client.CreateTranscription(ctx, req)
	if err != nil {
		return stt.Transcript{}, fmt.Errorf("openai stt: transcription: %w", err)
	}

	tr := stt.Transcript{
		Text:     strings.TrimSpace(resp.Text),
		Language: resp.Language,
		Duration: seconds(resp.Duration),
	}
	for _, seg := range resp.Segments {
		tr.Segments = append(tr.Segments, stt.Segment{
			Start: seconds(seg.Start),
			End:   seconds(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return tr, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
