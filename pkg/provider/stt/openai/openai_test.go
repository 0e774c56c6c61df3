package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt"
	sttopenai "github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/stt/openai"
)

func TestNew_EmptyKey(t *testing.T) {
	t.Parallel()
	if _, err := sttopenai.New(""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestTranscribe_VerboseJSON(t *testing.T) {
	t.Parallel()

	var gotModel, gotFormat, gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		if _, hdr, err := r.FormFile("file"); err == nil {
			gotFile = hdr.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"task":     "transcribe",
			"language": "english",
			"duration": 2.5,
			"text":     " um Lincoln was assassinated in 1865. ",
			"segments": []map[string]any{
				{"id": 0, "start": 0.0, "end": 2.5, "text": " um Lincoln was assassinated in 1865."},
			},
		})
	}))
	defer srv.Close()

	p, err := sttopenai.New("test-key", sttopenai.WithBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "answer.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o600); err != nil {
		t.Fatal(err)
	}

	tr, err := p.Transcribe(context.Background(), path, stt.ModelMedium)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "um Lincoln was assassinated in 1865." {
		t.Errorf("text = %q", tr.Text)
	}
	if tr.Duration != 2500*time.Millisecond {
		t.Errorf("duration = %v", tr.Duration)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].End != 2500*time.Millisecond {
		t.Errorf("segments = %+v", tr.Segments)
	}
	if gotModel != "whisper-1" {
		t.Errorf("model = %q, want whisper-1", gotModel)
	}
	if gotFormat != "verbose_json" {
		t.Errorf("response_format = %q, want verbose_json", gotFormat)
	}
	if gotFile != "answer.mp3" {
		t.Errorf("file name = %q", gotFile)
	}
}

func TestTranscribe_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p, _ := sttopenai.New("bad", sttopenai.WithBaseURL(srv.URL+"/v1"))
	path := filepath.Join(t.TempDir(), "a.wav")
	_ = os.WriteFile(path, []byte("RIFF"), 0o600)
	if _, err := p.Transcribe(context.Background(), path, stt.ModelSmall); err == nil {
		t.Fatal("expected error for HTTP 401")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	t.Parallel()

	p, _ := sttopenai.New("k")
	if _, err := p.Transcribe(context.Background(), filepath.Join(t.TempDir(), "none.wav"), stt.ModelSmall); err == nil {
		t.Fatal("expected error for missing file")
	}
}
