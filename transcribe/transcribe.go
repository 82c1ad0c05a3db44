package transcribe

import (
	"context"
	"fmt"
)

// Segment is one timed chunk of a transcription.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the full output of transcribing one audio file.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Transcriber converts a local audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*Result, error)
}

// TranscriptionError wraps a failure while transcribing a specific file.
type TranscriptionError struct {
	Path string
	Err  error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed for %s: %v", e.Path, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
