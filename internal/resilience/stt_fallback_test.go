package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
	sttmock "github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt/mock"
)

func TestSTTFallback_Transcribe(t *testing.T) {
	t.Parallel()

	local := &sttmock.Provider{Err: errors.New("model file missing")}
	hosted := &sttmock.Provider{Transcript: stt.Transcript{Text: "um hello"}}

	fb := NewSTTFallback(local, "whisper-native", FallbackConfig{})
	fb.AddFallback("openai", hosted)

	tr, err := fb.Transcribe(context.Background(), "answer.wav", stt.ModelBase)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Text != "um hello" {
		t.Errorf("text = %q", tr.Text)
	}
	calls := hosted.Calls()
	if len(calls) != 1 || calls[0].Path != "answer.wav" || calls[0].Size != stt.ModelBase {
		t.Errorf("fallback calls = %+v, want path and size forwarded", calls)
	}
	if names := fb.Names(); len(names) != 2 || names[0] != "whisper-native" {
		t.Errorf("Names = %v", names)
	}
}

func TestSTTFallback_AllFail(t *testing.T) {
	t.Parallel()

	fb := NewSTTFallback(&sttmock.Provider{Err: errTest}, "whisper", FallbackConfig{})
	if _, err := fb.Transcribe(context.Background(), "a.wav", stt.ModelSmall); !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
}
