package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is one periodic job. Run errors are logged, never fatal: a failed
// health probe or state save must not take the app down.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of periodic tasks until its context is cancelled.
type Runner struct {
	tasks []Task

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    sync.WaitGroup
	started bool
}

// NewRunner creates a runner over the given tasks. Tasks with a nil Run or
// non-positive interval are dropped.
func NewRunner(tasks ...Task) *Runner {
	kept := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Run == nil || t.Interval <= 0 {
			slog.Warn("Skipping misconfigured periodic task", "task", t.Name)
			continue
		}
		kept = append(kept, t)
	}
	return &Runner{tasks: kept}
}

// Start launches one goroutine per task. Calling Start twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	for _, task := range r.tasks {
		r.done.Add(1)
		go r.loop(ctx, task)
	}
	slog.Debug("Periodic tasks started", "count", len(r.tasks))
}

// Stop cancels every task and waits for the loops to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.done.Wait()
	slog.Debug("Periodic tasks stopped")
}

func (r *Runner) loop(ctx context.Context, task Task) {
	defer r.done.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := task.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("Periodic task failed", "task", task.Name, "error", err)
			}
		}
	}
}
