package whisper

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes data as a 16-bit PCM WAV file and returns its path.
func writeTestWAV(t *testing.T, sampleRate, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestReadWAVFile_Mono16k(t *testing.T) {
	t.Parallel()

	path := writeTestWAV(t, 16000, 1, []int{0, 16384, -16384, 32767})
	got, err := readWAVFile(path)
	if err != nil {
		t.Fatalf("readWAVFile: %v", err)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("sample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReadWAVFile_StereoDownmix(t *testing.T) {
	t.Parallel()

	// Two frames: (L=16384, R=0) and (L=-16384, R=-16384).
	path := writeTestWAV(t, 16000, 2, []int{16384, 0, -16384, -16384})
	got, err := readWAVFile(path)
	if err != nil {
		t.Fatalf("readWAVFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 mono frames", len(got))
	}
	if math.Abs(float64(got[0]-0.25)) > 1e-6 || math.Abs(float64(got[1]+0.5)) > 1e-6 {
		t.Errorf("got %v, want [0.25 -0.5]", got)
	}
}

func TestReadWAVFile_Resamples(t *testing.T) {
	t.Parallel()

	data := make([]int, 8000) // 1 s at 8 kHz
	path := writeTestWAV(t, 8000, 1, data)
	got, err := readWAVFile(path)
	if err != nil {
		t.Fatalf("readWAVFile: %v", err)
	}
	if len(got) != 16000 {
		t.Errorf("len = %d, want 16000 after upsampling", len(got))
	}
}

func TestReadWAVFile_Errors(t *testing.T) {
	t.Parallel()

	if _, err := readWAVFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}

	if _, err := decodeWAV(bytes.NewReader([]byte("definitely not a wav file"))); !errors.Is(err, errInvalidWAV) {
		t.Errorf("err = %v, want errInvalidWAV", err)
	}
}

func TestResampleLinear(t *testing.T) {
	t.Parallel()

	in := []float32{0, 1, 0, -1}
	if got := resampleLinear(in, 16000, 16000); len(got) != 4 {
		t.Errorf("same-rate resample changed length to %d", len(got))
	}
	if got := resampleLinear(nil, 8000, 16000); len(got) != 0 {
		t.Errorf("empty input produced %d samples", len(got))
	}

	down := resampleLinear([]float32{0, 0.5, 1, 0.5}, 32000, 16000)
	if len(down) != 2 {
		t.Fatalf("downsample len = %d, want 2", len(down))
	}
	if down[0] != 0 || down[1] != 1 {
		t.Errorf("downsample = %v, want [0 1]", down)
	}
}
