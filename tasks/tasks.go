package tasks

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// QueueScriptGenerate carries script-generation jobs from the API to the
// worker.
const QueueScriptGenerate = "q_script_generate"

// Credentials are the per-job downstream API keys. Empty fields fall back
// to the worker's environment configuration.
type Credentials struct {
	ApifyToken string `json:"apify_token,omitempty"`
	OpenAIKey  string `json:"openai_key,omitempty"`
}

// ScriptTaskPayload is the payload for QueueScriptGenerate.
type ScriptTaskPayload struct {
	JobID       string      `json:"job_id"`
	ProfileName string      `json:"profile_name"`
	Topic       string      `json:"topic"`
	Credentials Credentials `json:"credentials,omitempty"`
}

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Queue pushes task payloads onto Redis lists.
type Queue struct {
	rdb *redis.Client
}

// NewQueue creates a Queue backed by rdb.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Enqueue marshals payload and pushes it onto queueName.
func (q *Queue) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := Marshal(payload)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queueName, payloadStr).Err()
}
