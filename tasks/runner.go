package tasks

import (
	"context"
	"fmt"
	"log"
	"sync"

	"snowgate/core"
)

// Runner schedules deferred tasks as independent goroutines. Tasks are
// unordered and unbounded: each accepted command gets its own task, no task
// coordinates with any other, and once started a task runs to completion -
// there is no cancellation token threaded through.
type Runner struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	closed   bool
	notifier core.ErrorNotifier
}

// NewRunner creates a runner. notifier receives task panics, which the
// requester otherwise never learns about; nil disables alerting.
func NewRunner(notifier core.ErrorNotifier) *Runner {
	return &Runner{notifier: notifier}
}

// Go schedules fn to run outside the caller's control flow. It returns an
// error only when the runner has already been shut down; the caller is
// expected to have acked the request before calling this, so a refusal means
// a silently-lost command and must be logged at error level by the caller.
func (r *Runner) Go(name string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("task runner is shut down, refusing task %q", name)
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("❌ Deferred task panicked | task=%s panic=%v", name, rec)
				if r.notifier != nil {
					r.notifier.NotifyError("deferred task "+name, fmt.Errorf("panic: %v", rec))
				}
			}
		}()
		fn(context.Background())
	}()
	return nil
}

// Shutdown stops accepting new tasks and waits for in-flight tasks until the
// context expires
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown deadline reached with deferred tasks still running: %w", ctx.Err())
	}
}
