package batch

import "github.com/freddie-moore/scriptTok/transcribe"

// WorkItem identifies one video-to-transcript unit of work.
// Immutable once created.
type WorkItem struct {
	SourceURL string
	Filename  string
	Language  string
	KeepAudio bool
	OutputDir string
}

// WorkResult is the outcome of one WorkItem. Either Transcription is set or
// Err is set, never both. SourceURL is always carried so results can be
// correlated after out-of-order completion.
type WorkResult struct {
	SourceURL     string
	Transcription *transcribe.Result
	AudioPath     string
	Err           error
}

// Failed reports whether the unit produced no transcription.
func (r WorkResult) Failed() bool { return r.Err != nil }

// BatchResult holds one WorkResult per submitted WorkItem, in completion
// order. Per-item failures contribute an error-tagged entry rather than
// shrinking the batch.
type BatchResult []WorkResult

// Successes returns the results that produced a transcription, in
// completion order.
func (b BatchResult) Successes() []WorkResult {
	var ok []WorkResult
	for _, r := range b {
		if !r.Failed() {
			ok = append(ok, r)
		}
	}
	return ok
}

// Errors returns the failed results.
func (b BatchResult) Errors() []WorkResult {
	var failed []WorkResult
	for _, r := range b {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}
