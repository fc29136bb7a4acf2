// Package worker_pool bounds the number of provider requests in flight.
// File generation fans out through it so a large plan does not open one
// connection per file.
package worker_pool

import (
	"context"
	"runtime"
	"sync"
)

// Task is a unit of work to execute
type Task func(ctx context.Context) (interface{}, error)

// Result pairs a task's value with its error
type Result struct {
	Value interface{}
	Error error
}

// WorkerPool runs tasks with a fixed concurrency limit
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
}

// NewWorkerPool creates a pool; a non-positive limit defaults to the CPU count
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Run executes all tasks with at most maxWorkers in flight and returns
// results in submission order. A slot is acquired before a task's
// goroutine starts, so tasks still waiting when the context is cancelled
// fail with the context error without ever running.
func (wp *WorkerPool) Run(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	var wg sync.WaitGroup

	for i, task := range tasks {
		select {
		case wp.semaphore <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result{Error: ctx.Err()}
			continue
		}

		wg.Add(1)
		go func(index int, t Task) {
			defer wg.Done()
			defer func() { <-wp.semaphore }()

			value, err := t(ctx)
			results[index] = Result{Value: value, Error: err}
		}(i, task)
	}

	wg.Wait()
	return results
}

// GetMaxWorkers returns the concurrency limit
func (wp *WorkerPool) GetMaxWorkers() int {
	return wp.maxWorkers
}
