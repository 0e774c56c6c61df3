// Package stt defines the Provider interface for speech-to-text backends.
//
// A provider turns a recorded audio file into a [Transcript]. Backends range
// from a local whisper.cpp model to a hosted Whisper API; all of them accept a
// [ModelSize] hint so callers can trade accuracy for latency. Hosted backends
// that expose a single model are free to ignore the hint.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ModelSize selects the transcription model variant.
type ModelSize string

const (
	ModelSmall  ModelSize = "small"
	ModelBase   ModelSize = "base"
	ModelMedium ModelSize = "medium"

	// DefaultModelSize is used when no size is configured.
	DefaultModelSize = ModelSmall
)

// ErrUnsupportedModelSize is returned by [ParseModelSize] for unknown names.
var ErrUnsupportedModelSize = errors.New("stt: unsupported model size")

// ModelSizes lists the accepted model sizes in ascending order of cost.
func ModelSizes() []ModelSize {
	return []ModelSize{ModelBase, ModelSmall, ModelMedium}
}

// ParseModelSize converts s to a ModelSize. The empty string yields
// [DefaultModelSize]. Matching is case-insensitive.
func ParseModelSize(s string) (ModelSize, error) {
	switch ModelSize(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultModelSize, nil
	case ModelSmall:
		return ModelSmall, nil
	case ModelBase:
		return ModelBase, nil
	case ModelMedium:
		return ModelMedium, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedModelSize, s)
	}
}

// Provider is the abstraction over any file-based STT backend.
type Provider interface {
	// Transcribe reads the audio file at audioPath and returns its transcript.
	// An empty size means [DefaultModelSize].
	//
	// Errors are never masked: a backend that cannot load its model, read the
	// file or reach its service returns a non-nil error.
	Transcribe(ctx context.Context, audioPath string, size ModelSize) (Transcript, error)
}
