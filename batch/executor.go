package batch

import (
	"context"
	"log"
	"os"

	"github.com/freddie-moore/scriptTok/download"
	"github.com/freddie-moore/scriptTok/transcribe"
)

// UnitExecutor runs one WorkItem to completion.
type UnitExecutor interface {
	Execute(ctx context.Context, item WorkItem) WorkResult
}

// Executor downloads the audio for a single work item, transcribes it, and
// cleans up the artifact. Each worker constructs its own Executor so no
// transcriber handle is ever shared across concurrent units.
type Executor struct {
	downloader  download.Downloader
	transcriber transcribe.Transcriber
}

// NewExecutor wires a downloader and transcriber into a unit executor.
func NewExecutor(d download.Downloader, t transcribe.Transcriber) *Executor {
	return &Executor{downloader: d, transcriber: t}
}

// Execute runs download then transcribe for one item. A failed download
// returns an error result without attempting transcription. The downloaded
// audio is removed on every exit path unless the item asked to keep it;
// cleanup failures are logged, never escalated.
func (e *Executor) Execute(ctx context.Context, item WorkItem) WorkResult {
	audioPath, err := e.downloader.DownloadAudio(ctx, item.SourceURL, item.OutputDir, item.Filename)
	if err != nil {
		return WorkResult{SourceURL: item.SourceURL, Err: err}
	}

	if !item.KeepAudio {
		defer func() {
			if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
				log.Printf("Failed to clean up audio file %s: %v", audioPath, err)
			}
		}()
	}

	result, err := e.transcriber.Transcribe(ctx, audioPath, item.Language)
	if err != nil {
		return WorkResult{SourceURL: item.SourceURL, Err: err}
	}

	out := WorkResult{SourceURL: item.SourceURL, Transcription: result}
	if item.KeepAudio {
		out.AudioPath = audioPath
	}
	return out
}
