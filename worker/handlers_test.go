package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/freddie-moore/scriptTok/jobs"
	"github.com/freddie-moore/scriptTok/pipeline"
	"github.com/freddie-moore/scriptTok/tasks"
)

// recordingStore keeps every saved snapshot in order so tests can assert
// the stage sequence the handler published.
type recordingStore struct {
	*jobs.MemoryStore
	saved []jobs.Job
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: jobs.NewMemoryStore()}
}

func (s *recordingStore) Save(ctx context.Context, job jobs.Job) error {
	s.saved = append(s.saved, job)
	return s.MemoryStore.Save(ctx, job)
}

// fakePipeline drives the handler's notify callback through the given
// stages, then returns the canned script or error.
type fakePipeline struct {
	notify pipeline.Notifier
	stages []jobs.Stage
	script string
	err    error
	runs   int
}

func (f *fakePipeline) Run(ctx context.Context, profileName, topic string) (string, error) {
	f.runs++
	for _, stage := range f.stages {
		f.notify(stage, string(stage))
	}
	return f.script, f.err
}

func newTestProcessor(store jobs.Store, fake *fakePipeline) *Processor {
	p := NewProcessor(nil, nil, store)
	p.newPipeline = func(creds tasks.Credentials, notify pipeline.Notifier) (scriptPipeline, error) {
		fake.notify = notify
		return fake, nil
	}
	return p
}

func seedJob(t *testing.T, store jobs.Store, job jobs.Job) string {
	t.Helper()
	if err := store.Save(context.Background(), job); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return job.ID
}

func payloadFor(t *testing.T, jobID string) string {
	t.Helper()
	payload, err := tasks.Marshal(tasks.ScriptTaskPayload{
		JobID:       jobID,
		ProfileName: "demo",
		Topic:       "X",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func TestHandleScriptGeneration_SuccessPublishesEveryStage(t *testing.T) {
	store := newRecordingStore()
	id := seedJob(t, store, jobs.New("job-1", "demo", "X"))
	fake := &fakePipeline{
		stages: []jobs.Stage{jobs.StageScraping, jobs.StageAnalyzing, jobs.StageGenerating},
		script: "a new script",
	}
	p := newTestProcessor(store, fake)

	if err := p.HandleScriptGeneration(context.Background(), payloadFor(t, id)); err != nil {
		t.Fatalf("handler: %v", err)
	}

	want := []jobs.Stage{jobs.StagePending, jobs.StageScraping, jobs.StageAnalyzing, jobs.StageGenerating, jobs.StageSuccess}
	if len(store.saved) != len(want) {
		t.Fatalf("saved %d snapshots, want %d", len(store.saved), len(want))
	}
	for i, stage := range want {
		if store.saved[i].Stage != stage {
			t.Errorf("snapshot %d = %s, want %s", i, store.saved[i].Stage, stage)
		}
	}

	final, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Stage != jobs.StageSuccess || final.Result != "a new script" {
		t.Errorf("final snapshot = %s %q", final.Stage, final.Result)
	}
}

func TestHandleScriptGeneration_FailureFromEachStage(t *testing.T) {
	cases := []struct {
		name   string
		stages []jobs.Stage
	}{
		{"before scraping", nil},
		{"during scraping", []jobs.Stage{jobs.StageScraping}},
		{"during analyzing", []jobs.Stage{jobs.StageScraping, jobs.StageAnalyzing}},
		{"during generating", []jobs.Stage{jobs.StageScraping, jobs.StageAnalyzing, jobs.StageGenerating}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newRecordingStore()
			id := seedJob(t, store, jobs.New("job-1", "demo", "X"))
			runErr := errors.New("backend down")
			p := newTestProcessor(store, &fakePipeline{stages: tc.stages, err: runErr})

			if err := p.HandleScriptGeneration(context.Background(), payloadFor(t, id)); !errors.Is(err, runErr) {
				t.Fatalf("handler err = %v, want the run error", err)
			}

			final, err := store.Get(context.Background(), id)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if final.Stage != jobs.StageFailure {
				t.Errorf("final stage = %s, want FAILURE", final.Stage)
			}
			if final.Error != "backend down" {
				t.Errorf("error message = %q", final.Error)
			}
		})
	}
}

func TestHandleScriptGeneration_SkipsTerminalJob(t *testing.T) {
	store := newRecordingStore()
	job := jobs.New("job-1", "demo", "X")
	failed, err := job.Fail("already over")
	if err != nil {
		t.Fatalf("fail: %v", err)
	}
	id := seedJob(t, store, failed)
	savedBefore := len(store.saved)

	fake := &fakePipeline{script: "should not run"}
	p := newTestProcessor(store, fake)

	if err := p.HandleScriptGeneration(context.Background(), payloadFor(t, id)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fake.runs != 0 {
		t.Error("pipeline ran for a terminal job")
	}
	if len(store.saved) != savedBefore {
		t.Errorf("terminal job was rewritten: %d extra snapshots", len(store.saved)-savedBefore)
	}
}

func TestHandleScriptGeneration_DropsUnknownJob(t *testing.T) {
	store := newRecordingStore()
	fake := &fakePipeline{}
	p := newTestProcessor(store, fake)

	if err := p.HandleScriptGeneration(context.Background(), payloadFor(t, "expired")); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if fake.runs != 0 {
		t.Error("pipeline ran for an unknown job")
	}
}

func TestHandleScriptGeneration_PipelineBuildFailureFailsTheJob(t *testing.T) {
	store := newRecordingStore()
	id := seedJob(t, store, jobs.New("job-1", "demo", "X"))
	p := NewProcessor(nil, nil, store)
	buildErr := errors.New("missing token")
	p.newPipeline = func(creds tasks.Credentials, notify pipeline.Notifier) (scriptPipeline, error) {
		return nil, buildErr
	}

	if err := p.HandleScriptGeneration(context.Background(), payloadFor(t, id)); !errors.Is(err, buildErr) {
		t.Fatalf("handler err = %v, want the build error", err)
	}

	final, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if final.Stage != jobs.StageFailure {
		t.Errorf("final stage = %s, want FAILURE", final.Stage)
	}
}

func TestHandleScriptGeneration_RejectsMalformedPayload(t *testing.T) {
	p := NewProcessor(nil, nil, newRecordingStore())
	if err := p.HandleScriptGeneration(context.Background(), "{not json"); err == nil {
		t.Fatal("expected an unmarshal error")
	}
}
