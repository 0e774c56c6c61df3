//go:build whisper_cpp

package whisper_test

import (
	"context"
	"os"
	"testing"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt/whisper"
)

// testModelsDir returns the directory holding ggml models for integration
// tests. It reads WHISPER_MODELS_DIR; if unset the test is skipped.
func testModelsDir(t *testing.T) string {
	t.Helper()
	p := os.Getenv("WHISPER_MODELS_DIR")
	if p == "" {
		t.Skip("WHISPER_MODELS_DIR not set; skipping native whisper test")
	}
	return p
}

func TestNewNative_EmptyDir_ReturnsError(t *testing.T) {
	if _, err := whisper.NewNative(""); err == nil {
		t.Fatal("expected error for empty models dir, got nil")
	}
}

func TestNewNative_MissingDir_ReturnsError(t *testing.T) {
	if _, err := whisper.NewNative("/nonexistent/models"); err == nil {
		t.Fatal("expected error for missing models dir, got nil")
	}
}

func TestNativeTranscribe_MissingModelFile(t *testing.T) {
	p, err := whisper.NewNative(t.TempDir())
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	defer p.Close()

	wav := os.Getenv("WHISPER_TEST_WAV")
	if wav == "" {
		t.Skip("WHISPER_TEST_WAV not set")
	}
	if _, err := p.Transcribe(context.Background(), wav, stt.ModelBase); err == nil {
		t.Fatal("expected error when ggml-base.bin is absent")
	}
}

func TestNativeTranscribe_RealModel(t *testing.T) {
	dir := testModelsDir(t)
	wav := os.Getenv("WHISPER_TEST_WAV")
	if wav == "" {
		t.Skip("WHISPER_TEST_WAV not set")
	}
	p, err := whisper.NewNative(dir, whisper.WithNativeLanguage("en"))
	if err != nil {
		t.Fatalf("NewNative: %v", err)
	}
	defer p.Close()

	tr, err := p.Transcribe(context.Background(), wav, stt.ModelSmall)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text == "" {
		t.Error("expected non-empty transcript")
	}
}
