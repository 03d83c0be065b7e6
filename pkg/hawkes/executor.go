package hawkes

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/c9s/hawkes/pkg/metrics"
)

// Task is one multi-start run: a rolling-window fit from a single guess.
type Task func(ctx context.Context) ([]FitResult, error)

// Executor runs independent tasks concurrently. Collect blocks until every
// submitted task has finished and returns their results in completion order.
type Executor interface {
	Submit(ctx context.Context, task Task)
	Collect() ([][]FitResult, error)
}

// LocalExecutor runs tasks on a bounded pool of goroutines.
type LocalExecutor struct {
	MaxWorkers int

	mu      sync.Mutex
	group   *errgroup.Group
	ctx     context.Context
	results [][]FitResult
}

func NewLocalExecutor(maxWorkers int) *LocalExecutor {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	return &LocalExecutor{MaxWorkers: maxWorkers}
}

// Submit schedules the task, blocking while all workers are busy. The first
// failing task cancels the context seen by the others.
func (e *LocalExecutor) Submit(ctx context.Context, task Task) {
	e.mu.Lock()
	if e.group == nil {
		e.group, e.ctx = errgroup.WithContext(ctx)
		e.group.SetLimit(e.MaxWorkers)
	}
	group, groupCtx := e.group, e.ctx
	e.mu.Unlock()

	metrics.PendingTasksMetrics.Inc()
	group.Go(func() error {
		defer metrics.PendingTasksMetrics.Dec()

		results, err := task(groupCtx)
		if err != nil {
			return err
		}

		e.mu.Lock()
		e.results = append(e.results, results)
		e.mu.Unlock()
		return nil
	})
}

// Collect waits for all submitted tasks and resets the executor for reuse.
func (e *LocalExecutor) Collect() ([][]FitResult, error) {
	e.mu.Lock()
	group := e.group
	e.mu.Unlock()

	var err error
	if group != nil {
		err = group.Wait()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	results := e.results
	e.group, e.ctx, e.results = nil, nil, nil
	if err != nil {
		return nil, err
	}

	return results, nil
}
