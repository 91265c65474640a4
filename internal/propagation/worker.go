package propagation

import (
	"context"
	"log/slog"
	"sync"
)

// job is a unit of work for the worker pool: one index into the caller's batch.
type job struct {
	index int
}

// jobResult is the outcome of a single job.
type jobResult struct {
	index int
	err   error
}

// WorkerPool runs batches of independent jobs on a fixed number of goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.workers }

// Run calls fn for every index in [0, n) using the pool's workers and
// returns how many calls succeeded and failed. Failures are logged and
// skipped; fn records its own per-index output. Jobs not started before
// ctx is cancelled count as neither.
func (wp *WorkerPool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) (int, int) {
	if n <= 0 {
		return 0, 0
	}

	jobs := make(chan job, wp.workers*2)
	results := make(chan jobResult, wp.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				r := jobResult{index: j.index, err: fn(ctx, j.index)}
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- job{index: i}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	var successCount, errorCount int
	for r := range results {
		if r.err != nil {
			errorCount++
			wp.logger.Warn("job failed",
				"index", r.index,
				"error", r.err,
			)
			continue
		}
		successCount++
	}

	return successCount, errorCount
}
