package answering

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskRunner spawns fire-and-forget background tasks with panic recovery.
// The sync-background dispatch path runs through it so a panicking run can
// never take the server down, and shutdown can wait for in-flight runs.
type TaskRunner struct {
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewTaskRunner creates a new task runner
func NewTaskRunner(logger *zap.Logger) *TaskRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskRunner{logger: logger}
}

// Go runs fn on its own goroutine, detached from the caller's context. The
// task gets a fresh background context; onPanic, when set, runs after a
// recovered panic so the caller can settle state the task left behind.
func (r *TaskRunner) Go(name string, fn func(ctx context.Context), onPanic func(ctx context.Context)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx := context.Background()
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("background task panicked",
					zap.String("task", name),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				if onPanic != nil {
					onPanic(ctx)
				}
			}
		}()

		fn(ctx)
	}()
}

// Wait blocks until all in-flight tasks finish or the context expires
func (r *TaskRunner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout is a convenience wrapper over Wait with a fixed timeout
func (r *TaskRunner) WaitTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Wait(ctx)
}
