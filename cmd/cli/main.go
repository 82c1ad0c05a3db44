package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/freddie-moore/scriptTok/batch"
	"github.com/freddie-moore/scriptTok/download"
	"github.com/freddie-moore/scriptTok/generate"
	"github.com/freddie-moore/scriptTok/jobs"
	"github.com/freddie-moore/scriptTok/pipeline"
	"github.com/freddie-moore/scriptTok/scrape"
	"github.com/freddie-moore/scriptTok/transcribe"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	url := flag.String("url", "", "Single video URL to transcribe")
	profile := flag.String("profile", "", "Profile name to scrape for recent videos")
	topic := flag.String("topic", "", "Topic idea to generate a new script around")
	limit := flag.Int("limit", 3, "Number of videos to process from a profile")
	model := flag.String("model", "tiny", "Whisper model (tiny, base, small, medium, large, large-v3)")
	outputDir := flag.String("output-dir", "", "Directory to save audio files (defaults to a temp folder)")
	keepAudio := flag.Bool("keep-audio", false, "Keep downloaded audio file(s)")
	language := flag.String("language", "en", "Language code for transcription (e.g. 'en', 'es')")
	filename := flag.String("filename", "", "Custom audio filename (single URL mode only)")
	concurrency := flag.Int("concurrency", 0, "Parallel workers for profile mode (0 = number of CPUs)")
	apifyToken := flag.String("apify-token", os.Getenv("APIFY_API_TOKEN"), "Apify API token (required for -profile)")
	flag.Parse()

	if (*url == "") == (*profile == "") {
		fmt.Fprintln(os.Stderr, "Provide exactly one of -url or -profile")
		fmt.Fprintln(os.Stderr, "\nExamples:")
		fmt.Fprintln(os.Stderr, `  cli -url "https://www.tiktok.com/@user/video/123"`)
		fmt.Fprintln(os.Stderr, `  cli -profile 3blue1brown -topic "eigenvalues" -limit 3`)
		os.Exit(1)
	}
	if !transcribe.ValidModel(*model) {
		fmt.Fprintf(os.Stderr, "Unknown whisper model %q\n", *model)
		os.Exit(1)
	}
	if *filename != "" && *profile != "" {
		fmt.Fprintln(os.Stderr, "Warning: -filename is ignored in profile mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	if *profile != "" {
		err = runProfile(ctx, profileOptions{
			profile:     strings.TrimPrefix(*profile, "@"),
			topic:       *topic,
			limit:       *limit,
			model:       *model,
			outputDir:   *outputDir,
			language:    *language,
			keepAudio:   *keepAudio,
			concurrency: *concurrency,
			apifyToken:  *apifyToken,
		})
	} else {
		err = runSingleURL(ctx, *url, *model, *outputDir, *filename, *language, *topic, *keepAudio)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			fmt.Println("\nOperation cancelled by user.")
			os.Exit(0)
		}
		log.Printf("A processing error occurred: %v", err)
		os.Exit(1)
	}
}

type profileOptions struct {
	profile     string
	topic       string
	limit       int
	model       string
	outputDir   string
	language    string
	keepAudio   bool
	concurrency int
	apifyToken  string
}

// runProfile runs the full scrape -> transcribe -> generate pipeline in one
// shot, printing stage transitions as they happen.
func runProfile(ctx context.Context, opts profileOptions) error {
	if strings.TrimSpace(opts.topic) == "" {
		return fmt.Errorf("-topic is required in profile mode")
	}

	scraper, err := scrape.NewApifyScraper(opts.apifyToken)
	if err != nil {
		return err
	}
	generator, err := generate.NewClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("SYSTEM_PROMPT_PATH"))
	if err != nil {
		return err
	}
	runner := batch.NewRunner(func() (batch.UnitExecutor, error) {
		transcriber, err := transcribe.NewWhisperTranscriber(opts.model)
		if err != nil {
			return nil, err
		}
		return batch.NewExecutor(download.NewYtDlpDownloader(), transcriber), nil
	})

	orchestrator := pipeline.New(scraper, runner, generator, pipeline.Options{
		VideoLimit:  opts.limit,
		Language:    opts.language,
		Concurrency: opts.concurrency,
		OutputDir:   opts.outputDir,
		KeepAudio:   opts.keepAudio,
		Notify: func(stage jobs.Stage, status string) {
			fmt.Printf("[%s] %s\n", stage, status)
		},
	})

	script, err := orchestrator.Run(ctx, opts.profile, opts.topic)
	if err != nil {
		return err
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("GENERATED SCRIPT")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(script)
	return nil
}

// runSingleURL transcribes one video and prints the result. When a topic is
// given, the single transcript also feeds a generation call.
func runSingleURL(ctx context.Context, url, model, outputDir, filename, language, topic string, keepAudio bool) error {
	transcriber, err := transcribe.NewWhisperTranscriber(model)
	if err != nil {
		return err
	}
	executor := batch.NewExecutor(download.NewYtDlpDownloader(), transcriber)

	result := executor.Execute(ctx, batch.WorkItem{
		SourceURL: url,
		Filename:  filename,
		Language:  language,
		KeepAudio: keepAudio,
		OutputDir: outputDir,
	})
	if result.Failed() {
		return result.Err
	}

	displayResult(result)

	if strings.TrimSpace(topic) == "" {
		return nil
	}

	generator, err := generate.NewClient(os.Getenv("OPENAI_API_KEY"), os.Getenv("SYSTEM_PROMPT_PATH"))
	if err != nil {
		return err
	}
	corpus := fmt.Sprintf("[PAST_SCRIPT_1]:\n%s", result.Transcription.Text)
	script, err := generator.Generate(ctx, pipeline.ComposePrompt(corpus, topic))
	if err != nil {
		return err
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("GENERATED SCRIPT")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(pipeline.ExtractScriptBlock(script))
	return nil
}

// displayResult prints a transcription the way a human wants to read it.
func displayResult(result batch.WorkResult) {
	t := result.Transcription

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("TRANSCRIPTION RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Text: %s\n", t.Text)
	fmt.Printf("Language: %s\n", t.Language)

	if len(t.Segments) > 0 {
		fmt.Println("\n" + strings.Repeat("-", 40))
		fmt.Println("DETAILED SEGMENTS:")
		fmt.Println(strings.Repeat("-", 40))
		for i, seg := range t.Segments {
			fmt.Printf("%2d. [%6.2fs - %6.2fs] %s\n", i+1, seg.Start, seg.End, strings.TrimSpace(seg.Text))
		}
	}

	if result.AudioPath != "" {
		fmt.Printf("\nAudio file saved: %s\n", result.AudioPath)
	}
	fmt.Println(strings.Repeat("=", 60))
}
