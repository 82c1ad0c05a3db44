package batch

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
)

// ExecutorFactory builds a fresh UnitExecutor for one worker. Called once
// per worker so every worker owns an independent transcriber.
type ExecutorFactory func() (UnitExecutor, error)

// Runner fans a set of work items out across a bounded pool of workers and
// collects every result, success or error, before returning.
type Runner struct {
	factory ExecutorFactory
}

// NewRunner creates a runner that builds one executor per worker via factory.
func NewRunner(factory ExecutorFactory) *Runner {
	return &Runner{factory: factory}
}

// Run dispatches all items across at most concurrency workers and returns
// exactly one WorkResult per item, in completion order. concurrency <= 0
// defaults to the available CPUs; it is always capped by len(items).
// A panic inside a unit becomes an error result for that item rather than
// taking down its siblings.
func (r *Runner) Run(ctx context.Context, items []WorkItem, concurrency int) BatchResult {
	if len(items) == 0 {
		return nil
	}

	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	work := make(chan WorkItem)
	results := make(chan WorkResult)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.runWorker(ctx, work, results)
		}()
	}

	go func() {
		for _, item := range items {
			work <- item
		}
		close(work)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	batch := make(BatchResult, 0, len(items))
	for result := range results {
		batch = append(batch, result)
	}
	return batch
}

// runWorker drains the work channel with its own executor. If the executor
// cannot be built, every item the worker picks up fails with that error.
func (r *Runner) runWorker(ctx context.Context, work <-chan WorkItem, results chan<- WorkResult) {
	executor, factoryErr := r.factory()
	if factoryErr != nil {
		log.Printf("Worker failed to build executor: %v", factoryErr)
	}

	for item := range work {
		if factoryErr != nil {
			results <- WorkResult{SourceURL: item.SourceURL, Err: factoryErr}
			continue
		}
		results <- executeSafely(ctx, executor, item)
	}
}

// executeSafely converts a panicking unit into an error result.
func executeSafely(ctx context.Context, executor UnitExecutor, item WorkItem) (result WorkResult) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Recovered panic while processing %s: %v", item.SourceURL, rec)
			result = WorkResult{
				SourceURL: item.SourceURL,
				Err:       fmt.Errorf("unexpected error processing %s: %v", item.SourceURL, rec),
			}
		}
	}()
	return executor.Execute(ctx, item)
}
