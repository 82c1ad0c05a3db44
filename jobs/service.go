package jobs

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/freddie-moore/scriptTok/tasks"
)

// ValidationError reports a bad or missing request field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or empty field: %s", e.Field)
}

// Enqueuer hands a task payload to the worker transport.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload interface{}) error
}

// SubmitRequest is one script-generation submission.
type SubmitRequest struct {
	ProfileName string
	Topic       string
	Credentials tasks.Credentials
}

// Service is the async boundary exposed to callers: submit a job and get a
// handle back immediately, then poll for snapshots.
type Service struct {
	store Store
	queue Enqueuer
}

// NewService wires the job store and the task queue.
func NewService(store Store, queue Enqueuer) *Service {
	return &Service{store: store, queue: queue}
}

// Submit validates the request, stores a PENDING snapshot, and enqueues the
// work. It returns the job id without waiting for the pipeline. Validation
// failures happen before any snapshot is written.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if strings.TrimSpace(req.ProfileName) == "" {
		return "", &ValidationError{Field: "profile_name"}
	}
	if strings.TrimSpace(req.Topic) == "" {
		return "", &ValidationError{Field: "topic"}
	}

	job := New(uuid.New().String(), req.ProfileName, req.Topic)
	if err := s.store.Save(ctx, job); err != nil {
		return "", fmt.Errorf("failed to store job: %w", err)
	}

	payload := tasks.ScriptTaskPayload{
		JobID:       job.ID,
		ProfileName: req.ProfileName,
		Topic:       req.Topic,
		Credentials: req.Credentials,
	}
	if err := s.queue.Enqueue(ctx, tasks.QueueScriptGenerate, payload); err != nil {
		// Mark the stranded job failed so polls don't hang on PENDING forever.
		if failed, ferr := job.Fail("Failed to enqueue job"); ferr == nil {
			if serr := s.store.Save(ctx, failed); serr != nil {
				log.Printf("Failed to mark job %s as failed: %v", job.ID, serr)
			}
		}
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job.ID, nil
}

// Poll returns the current snapshot for a job id. Polling is side-effect
// free; a terminal job keeps returning the same payload.
func (s *Service) Poll(ctx context.Context, id string) (Job, error) {
	return s.store.Get(ctx, id)
}
