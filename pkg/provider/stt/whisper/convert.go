package whisper

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// targetSampleRate is the input rate whisper.cpp models are trained on.
const targetSampleRate = 16000

// errInvalidWAV is returned when a file does not carry a RIFF/WAVE header.
var errInvalidWAV = errors.New("whisper: not a valid WAV file")

// readWAVFile decodes the WAV file at path into mono float32 samples at
// [targetSampleRate], normalised to [-1.0, 1.0].
func readWAVFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: open audio: %w", err)
	}
	defer f.Close()
	return decodeWAV(f)
}

// decodeWAV decodes a WAV stream into mono float32 samples at
// [targetSampleRate].
func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("whisper: decode wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, errors.New("whisper: wav contains no samples")
	}

	rate := int(dec.SampleRate)
	if rate == 0 && buf.Format != nil {
		rate = buf.Format.SampleRate
	}
	if rate == 0 {
		rate = targetSampleRate
	}

	mono := toMonoFloat32(buf)
	return resampleLinear(mono, rate, targetSampleRate), nil
}

// toMonoFloat32 down-mixes an integer PCM buffer to mono float32 by averaging
// all channels per frame. Samples are scaled by the source bit depth.
func toMonoFloat32(buf *audio.IntBuffer) []float32 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		channels = buf.Format.NumChannels
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := float32(int64(1) << (depth - 1))

	frames := len(buf.Data) / channels
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			sum += float32(buf.Data[i*channels+ch]) / scale
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// resampleLinear converts samples from inRate to outRate using linear
// interpolation. Equal or invalid rates return the input unchanged.
func resampleLinear(samples []float32, inRate, outRate int) []float32 {
	if inRate <= 0 || outRate <= 0 || inRate == outRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := max(int(float64(len(samples))*ratio), 1)

	out := make([]float32, outLen)
	for i := range outLen {
		pos := float64(i) / ratio
		i0 := int(pos)
		if i0 >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(i0))
		out[i] = samples[i0] + (samples[i0+1]-samples[i0])*frac
	}
	return out
}
