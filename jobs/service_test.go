package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/freddie-moore/scriptTok/tasks"
)

type fakeQueue struct {
	enqueued []tasks.ScriptTaskPayload
	err      error
}

func (q *fakeQueue) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, payload.(tasks.ScriptTaskPayload))
	return nil
}

func TestService_SubmitStoresPendingAndEnqueues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	queue := &fakeQueue{}
	svc := NewService(store, queue)

	id, err := svc.Submit(ctx, SubmitRequest{ProfileName: "demo", Topic: "space"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatal("Submit returned empty job id")
	}

	job, err := svc.Poll(ctx, id)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if job.Stage != StagePending {
		t.Errorf("stage after submit = %s, want PENDING", job.Stage)
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(queue.enqueued))
	}
	if queue.enqueued[0].JobID != id || queue.enqueued[0].ProfileName != "demo" {
		t.Errorf("bad payload: %+v", queue.enqueued[0])
	}
}

func TestService_SubmitValidatesBeforeAnyTransition(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	queue := &fakeQueue{}
	svc := NewService(store, queue)

	cases := []SubmitRequest{
		{ProfileName: "", Topic: "space"},
		{ProfileName: "demo", Topic: ""},
		{ProfileName: "   ", Topic: "space"},
	}
	for _, req := range cases {
		_, err := svc.Submit(ctx, req)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("Submit(%+v) err = %v, want ValidationError", req, err)
		}
	}

	if len(queue.enqueued) != 0 {
		t.Errorf("invalid submissions enqueued %d tasks", len(queue.enqueued))
	}
	if len(store.jobs) != 0 {
		t.Errorf("invalid submissions stored %d jobs", len(store.jobs))
	}
}

func TestService_SubmitEnqueueFailureFailsJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	queue := &fakeQueue{err: errors.New("redis down")}
	svc := NewService(store, queue)

	_, err := svc.Submit(ctx, SubmitRequest{ProfileName: "demo", Topic: "space"})
	if err == nil {
		t.Fatal("Submit succeeded despite enqueue failure")
	}

	// The stranded snapshot must be terminal so polls do not hang.
	for _, job := range store.jobs {
		if job.Stage != StageFailure {
			t.Errorf("stranded job stage = %s, want FAILURE", job.Stage)
		}
	}
}
