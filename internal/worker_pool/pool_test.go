package worker_pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPreservesOrder(t *testing.T) {
	pool := NewWorkerPool(4)

	tasks := make([]Task, 10)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) (interface{}, error) {
			return fmt.Sprintf("task-%d", i), nil
		}
	}

	results := pool.Run(context.Background(), tasks)
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}
	for i, r := range results {
		if r.Error != nil {
			t.Errorf("task %d returned error: %v", i, r.Error)
		}
		if r.Value != fmt.Sprintf("task-%d", i) {
			t.Errorf("result %d = %v, out of order", i, r.Value)
		}
	}
}

func TestRunLimitsConcurrency(t *testing.T) {
	const maxWorkers = 2
	pool := NewWorkerPool(maxWorkers)

	var current, peak int64
	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (interface{}, error) {
			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&current, -1)
			return nil, nil
		}
	}

	pool.Run(context.Background(), tasks)
	if p := atomic.LoadInt64(&peak); p > maxWorkers {
		t.Errorf("peak concurrency %d exceeds limit %d", p, maxWorkers)
	}
}

func TestRunPropagatesTaskErrors(t *testing.T) {
	pool := NewWorkerPool(2)
	boom := errors.New("boom")

	results := pool.Run(context.Background(), []Task{
		func(ctx context.Context) (interface{}, error) { return "ok", nil },
		func(ctx context.Context) (interface{}, error) { return nil, boom },
	})

	if results[0].Error != nil {
		t.Errorf("task 0 error = %v, want nil", results[0].Error)
	}
	if !errors.Is(results[1].Error, boom) {
		t.Errorf("task 1 error = %v, want boom", results[1].Error)
	}
}

func TestRunCancelledContext(t *testing.T) {
	pool := NewWorkerPool(1)

	ctx, cancel := context.WithCancel(context.Background())
	var started sync.Once
	ready := make(chan struct{})

	// One task holds the only slot until cancellation, so tasks still
	// waiting on the semaphore must give up with the context error.
	blocker := func(ctx context.Context) (interface{}, error) {
		started.Do(func() { close(ready) })
		<-ctx.Done()
		return nil, ctx.Err()
	}
	tasks := make([]Task, 5)
	for i := range tasks {
		tasks[i] = blocker
	}

	go func() {
		<-ready
		cancel()
	}()

	results := pool.Run(ctx, tasks)
	cancelled := 0
	for _, r := range results {
		if errors.Is(r.Error, context.Canceled) {
			cancelled++
		}
	}
	if cancelled != len(tasks) {
		t.Errorf("%d of %d tasks saw cancellation, want all", cancelled, len(tasks))
	}
}

func TestDefaultWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.GetMaxWorkers() <= 0 {
		t.Errorf("GetMaxWorkers() = %d, want > 0", pool.GetMaxWorkers())
	}
}
