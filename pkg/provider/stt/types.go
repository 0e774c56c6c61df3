package stt

import "time"

// Transcript is the result of transcribing one audio file.
type Transcript struct {
	// Text is the full transcribed speech with surrounding whitespace removed.
	Text string `json:"text"`

	// Language is the detected or configured language code. May be empty.
	Language string `json:"language,omitempty"`

	// Duration is the length of the transcribed audio when the backend
	// reports it.
	Duration time.Duration `json:"duration,omitempty"`

	// Segments holds per-segment timing when available.
	Segments []Segment `json:"segments,omitempty"`
}

// Segment is a timed span of a [Transcript].
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}
