package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrUnknownJob is returned when a job id was never issued or its record
// has expired from the store.
var ErrUnknownJob = errors.New("unknown job id")

// Store persists job snapshots keyed by job id.
type Store interface {
	Save(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
}

const jobKeyPrefix = "job:"

// RedisStore keeps job snapshots as JSON values in Redis with a retention
// TTL. Every Save replaces the snapshot wholesale.
type RedisStore struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewRedisStore creates a store. retention <= 0 defaults to 24 hours.
func NewRedisStore(rdb *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, retention: retention}
}

// Save writes the snapshot, refreshing the retention window.
func (s *RedisStore) Save(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}
	if err := s.rdb.Set(ctx, jobKeyPrefix+job.ID, data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// Get returns the current snapshot or ErrUnknownJob.
func (s *RedisStore) Get(ctx context.Context, id string) (Job, error) {
	data, err := s.rdb.Get(ctx, jobKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return Job{}, ErrUnknownJob
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return job, nil
}

// Delete removes a job snapshot. Used by the retention sweeper.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, jobKeyPrefix+id).Err()
}

// Snapshots scans the store and returns every job currently held. Order is
// unspecified.
func (s *RedisStore) Snapshots(ctx context.Context) ([]Job, error) {
	var jobs []Job
	iter := s.rdb.Scan(ctx, 0, jobKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.rdb.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", iter.Val(), err)
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// MemoryStore is an in-process Store used by the CLI and by tests.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Save(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrUnknownJob
	}
	return job, nil
}
