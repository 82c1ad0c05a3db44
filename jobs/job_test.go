package jobs

import (
	"context"
	"encoding/json"
	"testing"
)

func TestJob_StartsPending(t *testing.T) {
	job := New("j1", "demo", "space")
	if job.Stage != StagePending {
		t.Fatalf("new job stage = %s, want %s", job.Stage, StagePending)
	}
	if job.Terminal() {
		t.Error("new job must not be terminal")
	}
}

func TestJob_AdvancesForwardOnly(t *testing.T) {
	job := New("j1", "demo", "space")

	sequence := []Stage{StageScraping, StageAnalyzing, StageGenerating}
	for _, next := range sequence {
		advanced, err := job.Advance(next, "working")
		if err != nil {
			t.Fatalf("Advance(%s) from %s: %v", next, job.Stage, err)
		}
		job = advanced
	}

	// Regression must be rejected and leave the snapshot untouched.
	if _, err := job.Advance(StageScraping, "again"); err == nil {
		t.Error("Advance back to SCRAPING succeeded, want error")
	}
	if job.Stage != StageGenerating {
		t.Errorf("snapshot mutated after rejected transition: %s", job.Stage)
	}
}

func TestJob_CannotSkipStages(t *testing.T) {
	job := New("j1", "demo", "space")
	if _, err := job.Advance(StageGenerating, "skip"); err == nil {
		t.Error("PENDING -> GENERATING succeeded, want error")
	}
}

func TestJob_SucceedOnlyFromGenerating(t *testing.T) {
	job := New("j1", "demo", "space")
	if _, err := job.Succeed("script"); err == nil {
		t.Error("Succeed from PENDING succeeded, want error")
	}

	job, _ = job.Advance(StageScraping, "")
	job, _ = job.Advance(StageAnalyzing, "")
	job, _ = job.Advance(StageGenerating, "")

	done, err := job.Succeed("the script")
	if err != nil {
		t.Fatalf("Succeed from GENERATING: %v", err)
	}
	if done.Stage != StageSuccess || done.Result != "the script" {
		t.Errorf("got stage=%s result=%q", done.Stage, done.Result)
	}
}

func TestJob_ExactlyOneTerminalTransition(t *testing.T) {
	job := New("j1", "demo", "space")

	failed, err := job.Fail("scrape backend down")
	if err != nil {
		t.Fatalf("Fail from PENDING: %v", err)
	}
	if failed.Stage != StageFailure || failed.Error == "" {
		t.Errorf("got stage=%s error=%q", failed.Stage, failed.Error)
	}

	if _, err := failed.Fail("again"); err == nil {
		t.Error("second Fail succeeded, want error")
	}
	if _, err := failed.Advance(StageScraping, ""); err == nil {
		t.Error("Advance after terminal succeeded, want error")
	}
	if _, err := failed.Succeed("late"); err == nil {
		t.Error("Succeed after terminal succeeded, want error")
	}
}

func TestMemoryStore_UnknownJob(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "missing"); err != ErrUnknownJob {
		t.Fatalf("Get unknown id err = %v, want ErrUnknownJob", err)
	}
}

func TestMemoryStore_TerminalPollIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	job := New("j1", "demo", "space")
	job, _ = job.Fail("no videos found")
	if err := store.Save(ctx, job); err != nil {
		t.Fatal(err)
	}

	first, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("terminal polls differ:\n%s\n%s", a, b)
	}
}
