// Package slicer cuts highlight scenes from long-form video by keyword
// and energy anchors over an ASR transcript.
package slicer

import "context"

// Segment is one transcribed utterance.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the ASR result for one media file.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// TranscribeOptions configures a transcription.
type TranscribeOptions struct {
	// Language hints the ASR language; empty means auto-detect.
	Language string
	// VADFilter drops non-speech regions before decoding.
	VADFilter bool
}

// Transcriber produces transcripts. Implementations typically wrap an
// external speech model; the slicer only depends on this interface.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string, opts TranscribeOptions) (*Transcript, error)
}

// VisionCaptioner describes a single frame in natural language. Used as
// an optional relevance filter over candidate windows.
type VisionCaptioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}
