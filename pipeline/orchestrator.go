package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/freddie-moore/scriptTok/batch"
	"github.com/freddie-moore/scriptTok/jobs"
	"github.com/freddie-moore/scriptTok/scrape"
)

// ErrNoSources is returned when a profile resolves to zero video URLs.
var ErrNoSources = errors.New("no videos found for profile")

// ErrNoTranscripts is returned when every work unit in the batch failed, so
// there is no corpus to generate from.
var ErrNoTranscripts = errors.New("all videos failed to transcribe")

// Generator produces a new script from the aggregated prompt text.
type Generator interface {
	Generate(ctx context.Context, userText string) (string, error)
}

// BatchRunner fans work items out across workers. Satisfied by batch.Runner.
type BatchRunner interface {
	Run(ctx context.Context, items []batch.WorkItem, concurrency int) batch.BatchResult
}

// Notifier receives stage transitions as the pipeline advances. The
// orchestrator reports SCRAPING, ANALYZING and GENERATING; terminal
// transitions belong to the caller, which knows the job.
type Notifier func(stage jobs.Stage, status string)

// Options tune one orchestrator.
type Options struct {
	// VideoLimit caps how many profile videos feed one job. Defaults to 3.
	VideoLimit int
	// Language hint passed to every transcription. Defaults to "en".
	Language string
	// Concurrency for the batch phase. <= 0 lets the runner decide.
	Concurrency int
	// OutputDir for downloaded audio. Empty uses the system temp dir.
	OutputDir string
	// KeepAudio retains the downloaded audio files instead of removing
	// them after transcription.
	KeepAudio bool
	// Notify is called on each stage transition. May be nil.
	Notify Notifier
}

// Orchestrator sequences scrape -> batch transcription -> generation for
// one job.
type Orchestrator struct {
	scraper   scrape.Scraper
	runner    BatchRunner
	generator Generator
	opts      Options
}

// New creates an orchestrator over the three collaborators.
func New(scraper scrape.Scraper, runner BatchRunner, generator Generator, opts Options) *Orchestrator {
	if opts.VideoLimit <= 0 {
		opts.VideoLimit = 3
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	return &Orchestrator{
		scraper:   scraper,
		runner:    runner,
		generator: generator,
		opts:      opts,
	}
}

func (o *Orchestrator) notify(stage jobs.Stage, status string) {
	if o.opts.Notify != nil {
		o.opts.Notify(stage, status)
	}
}

// Run executes the full pipeline for one profile and topic and returns the
// generated script. Scrape and generation failures are fatal; per-video
// failures inside the batch are absorbed unless every video fails.
func (o *Orchestrator) Run(ctx context.Context, profileName, topic string) (string, error) {
	o.notify(jobs.StageScraping, fmt.Sprintf("Scraping recent videos for @%s...", profileName))

	urls, err := o.scraper.ScrapeProfile(ctx, profileName, o.opts.VideoLimit)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: @%s", ErrNoSources, profileName)
	}
	log.Printf("Found %d video(s) for @%s", len(urls), profileName)

	o.notify(jobs.StageAnalyzing, fmt.Sprintf("Transcribing %d video(s)...", len(urls)))

	items := make([]batch.WorkItem, 0, len(urls))
	for _, url := range urls {
		items = append(items, batch.WorkItem{
			SourceURL: url,
			Language:  o.opts.Language,
			KeepAudio: o.opts.KeepAudio,
			OutputDir: o.opts.OutputDir,
		})
	}

	results := o.runner.Run(ctx, items, o.opts.Concurrency)
	for _, r := range results.Errors() {
		log.Printf("Video %s failed: %v", r.SourceURL, r.Err)
	}

	corpus, successes := ReduceTranscripts(results)
	if successes == 0 {
		return "", fmt.Errorf("%w: %d of %d", ErrNoTranscripts, len(results.Errors()), len(results))
	}
	log.Printf("Transcribed %d of %d video(s)", successes, len(items))

	o.notify(jobs.StageGenerating, "Generating new script...")

	script, err := o.generator.Generate(ctx, ComposePrompt(corpus, topic))
	if err != nil {
		return "", err
	}

	return ExtractScriptBlock(script), nil
}
