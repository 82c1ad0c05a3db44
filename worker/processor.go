package worker

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/freddie-moore/scriptTok/jobs"
	"github.com/freddie-moore/scriptTok/pipeline"
	"github.com/freddie-moore/scriptTok/tasks"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// scriptPipeline runs the full scrape -> transcribe -> generate flow for
// one profile and topic. Satisfied by pipeline.Orchestrator.
type scriptPipeline interface {
	Run(ctx context.Context, profileName, topic string) (string, error)
}

// Processor holds dependencies and registered task handlers.
type Processor struct {
	DB       *gorm.DB
	RDB      *redis.Client
	Store    jobs.Store
	handlers map[string]TaskHandler

	newPipeline func(creds tasks.Credentials, notify pipeline.Notifier) (scriptPipeline, error)
}

// NewProcessor creates a new worker processor.
func NewProcessor(db *gorm.DB, rdb *redis.Client, store jobs.Store) *Processor {
	p := &Processor{
		DB:       db,
		RDB:      rdb,
		Store:    store,
		handlers: make(map[string]TaskHandler),
	}
	p.newPipeline = func(creds tasks.Credentials, notify pipeline.Notifier) (scriptPipeline, error) {
		return p.buildOrchestrator(creds, notify)
	}
	return p
}

// Register maps a queue name (task type) to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	log.Printf("Registered handler for queue: %s", queueName)
}

// Enqueue is a helper to add a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return p.RDB.LPush(ctx, queueName, payloadStr).Err()
}

// Listen starts the worker, listening on all registered queues.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	log.Printf("Worker listening on %d queues: %v", len(queueNames), queueNames)

	for {
		// BRPop blocks until a task is available on any of the listed queues.
		result, err := p.RDB.BRPop(ctx, 0, queueNames...).Result()
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("Worker stopping: %v", ctx.Err())
				return
			}
			log.Printf("Error popping from queue: %v", err)
			time.Sleep(1 * time.Second)
			continue
		}

		// result[0] is the queue name, result[1] is the payload
		queueName := result[0]
		payload := result[1]

		handler, ok := p.handlers[queueName]
		if !ok {
			log.Printf("Error: No handler registered for queue %s", queueName)
			continue
		}

		log.Printf("Received task from queue %s", queueName)

		if err := handler(ctx, payload); err != nil {
			log.Printf("Error processing task from %s: %v", queueName, err)
		}
	}
}
