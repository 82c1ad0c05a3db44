package transcribe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidModel(t *testing.T) {
	for _, m := range []string{"tiny", "base", "small", "medium", "large", "large-v3"} {
		if !ValidModel(m) {
			t.Errorf("ValidModel(%q) = false", m)
		}
	}
	for _, m := range []string{"", "huge", "tiny-v9"} {
		if ValidModel(m) {
			t.Errorf("ValidModel(%q) = true", m)
		}
	}
}

func TestNewWhisperTranscriber_RejectsUnknownModel(t *testing.T) {
	if _, err := NewWhisperTranscriber("enormous"); err == nil {
		t.Error("unknown model accepted")
	}
}

func TestNewWhisperTranscriber_DefaultsToTiny(t *testing.T) {
	tr, err := NewWhisperTranscriber("")
	if err != nil {
		t.Fatal(err)
	}
	if tr.model != "tiny" {
		t.Errorf("default model = %q, want tiny", tr.model)
	}
}

func TestParseResultFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audio.json")
	payload := `{
		"text": "  hello world  ",
		"language": "en",
		"segments": [
			{"start": 0.0, "end": 1.5, "text": "hello"},
			{"start": 1.5, "end": 3.0, "text": "world"}
		]
	}`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := ParseResultFile(path)
	if err != nil {
		t.Fatalf("ParseResultFile: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("text = %q, want trimmed transcript", result.Text)
	}
	if result.Language != "en" {
		t.Errorf("language = %q", result.Language)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(result.Segments))
	}
	if result.Segments[1].Start != 1.5 || result.Segments[1].End != 3.0 {
		t.Errorf("segment timing wrong: %+v", result.Segments[1])
	}
}

func TestParseResultFile_MissingFile(t *testing.T) {
	if _, err := ParseResultFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing file parsed without error")
	}
}
