package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/freddie-moore/scriptTok/internal/platform"
	"github.com/freddie-moore/scriptTok/jobs"
	"github.com/freddie-moore/scriptTok/tasks"
	"github.com/freddie-moore/scriptTok/worker"
)

func main() {
	// Use the shared initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := jobs.NewRedisStore(rdb, 0)
	processor := worker.NewProcessor(db, rdb, store)
	processor.Register(tasks.QueueScriptGenerate, processor.HandleScriptGeneration)

	log.Println("Worker started, waiting for queue tasks...")
	processor.Listen(ctx, tasks.QueueScriptGenerate)
}
