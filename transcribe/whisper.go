package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// validModels are the speech model sizes the whisper CLI accepts.
var validModels = []string{"tiny", "base", "small", "medium", "large", "large-v1", "large-v2", "large-v3"}

// WhisperTranscriber runs the local whisper binary. Every Transcribe call
// spawns a fresh subprocess, so the model is never shared between
// concurrent callers.
type WhisperTranscriber struct {
	binaryPath string
	model      string
	timeout    time.Duration
}

// NewWhisperTranscriber creates a transcriber for the given model size.
func NewWhisperTranscriber(model string) (*WhisperTranscriber, error) {
	if model == "" {
		model = "tiny"
	}
	if !ValidModel(model) {
		return nil, fmt.Errorf("invalid whisper model %q, choose from: %s", model, strings.Join(validModels, ", "))
	}
	bin := os.Getenv("WHISPER_BIN")
	if bin == "" {
		bin = "whisper"
	}
	return &WhisperTranscriber{
		binaryPath: bin,
		model:      model,
		timeout:    15 * time.Minute,
	}, nil
}

// ValidModel reports whether name is a known whisper model size.
func ValidModel(name string) bool {
	for _, m := range validModels {
		if m == name {
			return true
		}
	}
	return false
}

// Transcribe runs whisper on audioPath and parses the JSON it writes.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath, language string) (*Result, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, &TranscriptionError{Path: audioPath, Err: fmt.Errorf("audio file not found: %w", err)}
	}

	outDir, err := os.MkdirTemp("", "whisper-out-")
	if err != nil {
		return nil, &TranscriptionError{Path: audioPath, Err: err}
	}
	defer os.RemoveAll(outDir)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := []string{
		audioPath,
		"--model", t.model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if language != "" {
		args = append(args, "--language", language)
	}

	cmd := exec.CommandContext(ctx, t.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &TranscriptionError{
			Path: audioPath,
			Err:  fmt.Errorf("whisper failed: %w, stderr: %s", err, stderr.String()),
		}
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(outDir, base+".json")
	result, err := ParseResultFile(resultPath)
	if err != nil {
		return nil, &TranscriptionError{Path: audioPath, Err: err}
	}
	return result, nil
}

// ParseResultFile reads a whisper JSON output file into a Result.
func ParseResultFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %w", err)
	}
	result.Text = strings.TrimSpace(result.Text)
	return &result, nil
}
