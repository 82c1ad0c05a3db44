package download

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Downloader fetches the audio track of a video URL to a local file.
type Downloader interface {
	DownloadAudio(ctx context.Context, videoURL, outputDir, filename string) (string, error)
}

// DownloadError wraps a failure while downloading a specific URL.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed for %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// YtDlpDownloader uses the local yt-dlp binary to extract audio.
type YtDlpDownloader struct {
	binaryPath string
	timeout    time.Duration
}

// NewYtDlpDownloader creates a downloader. yt-dlp must be on PATH unless
// YTDLP_BIN points elsewhere.
func NewYtDlpDownloader() *YtDlpDownloader {
	bin := os.Getenv("YTDLP_BIN")
	if bin == "" {
		bin = "yt-dlp"
	}
	return &YtDlpDownloader{
		binaryPath: bin,
		timeout:    10 * time.Minute,
	}
}

// DownloadAudio extracts the audio track of videoURL as mp3 under outputDir.
// An empty filename gets a generated one; an empty outputDir uses a temp dir.
// Returns the path of the written file.
func (d *YtDlpDownloader) DownloadAudio(ctx context.Context, videoURL, outputDir, filename string) (string, error) {
	if strings.TrimSpace(videoURL) == "" {
		return "", &DownloadError{URL: videoURL, Err: fmt.Errorf("empty URL")}
	}

	if outputDir == "" {
		outputDir = os.TempDir()
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", &DownloadError{URL: videoURL, Err: fmt.Errorf("failed to create output dir: %w", err)}
	}
	if filename == "" {
		filename = "audio_" + uuid.New().String()
	}
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))

	outTemplate := filepath.Join(outputDir, filename+".%(ext)s")
	audioPath := filepath.Join(outputDir, filename+".mp3")

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// -x extracts audio only; videos are short so mp3 re-encode is cheap.
	cmd := exec.CommandContext(ctx, d.binaryPath,
		"-x",
		"--audio-format", "mp3",
		"--no-warnings",
		"--no-playlist",
		"-o", outTemplate,
		videoURL,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		sweepPartials(outputDir, filename)
		return "", &DownloadError{
			URL: videoURL,
			Err: fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, stderr.String()),
		}
	}

	if _, err := os.Stat(audioPath); err != nil {
		sweepPartials(outputDir, filename)
		return "", &DownloadError{URL: videoURL, Err: fmt.Errorf("yt-dlp produced no audio file at %s", audioPath)}
	}
	return audioPath, nil
}

// sweepPartials removes anything yt-dlp left behind for a failed download:
// .part files and pre-re-encode intermediates all share the filename stem.
func sweepPartials(outputDir, filename string) {
	matches, err := filepath.Glob(filepath.Join(outputDir, filename+".*"))
	if err != nil {
		return
	}
	for _, path := range matches {
		os.Remove(path)
	}
}
