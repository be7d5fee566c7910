package queue

import (
	"context"
	"sync"
	"time"

	"github.com/skillbase/backend/internal/domain/answering"
	"go.uber.org/zap"
)

// Dequeuer is the consuming side of a job queue
type Dequeuer interface {
	Dequeue(ctx context.Context) (*answering.DispatchJob, error)
}

// JobHandler processes a dequeued dispatch job
type JobHandler interface {
	ProcessJob(ctx context.Context, job answering.DispatchJob) error
}

// WorkerConfig holds configuration for the queue worker
type WorkerConfig struct {
	// RetryDelay is how long to back off after a queue error before
	// polling again.
	RetryDelay time.Duration
}

// DefaultWorkerConfig returns default configuration
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		RetryDelay: 2 * time.Second,
	}
}

// Worker consumes dispatch jobs from a queue and runs them through the
// handler, one at a time. Parallelism within a run is the batch processor's
// concern, not the worker's.
type Worker struct {
	queue   Dequeuer
	handler JobHandler
	config  WorkerConfig
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a new queue worker
func NewWorker(queue Dequeuer, handler JobHandler, config WorkerConfig, logger *zap.Logger) *Worker {
	return &Worker{
		queue:   queue,
		handler: handler,
		config:  config,
		logger:  logger,
	}
}

// Start starts the background consume loop
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.consumeLoop(ctx)

	w.logger.Info("queue worker started")
	return nil
}

// Stop gracefully stops the worker, waiting for an in-flight job to finish
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("queue worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// consumeLoop is the main consume loop
func (w *Worker) consumeLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to dequeue job", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.config.RetryDelay):
			}
			continue
		}
		if job == nil {
			// Poll timeout with nothing to do.
			continue
		}

		w.runJob(ctx, *job)
	}
}

// runJob executes one job with panic isolation so a bad job cannot take the
// worker down.
func (w *Worker) runJob(ctx context.Context, job answering.DispatchJob) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing job",
				zap.String("job_id", job.JobID),
				zap.String("project_id", job.ProjectID.String()),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
		}
	}()

	start := time.Now()
	w.logger.Info("processing job",
		zap.String("job_id", job.JobID),
		zap.String("project_id", job.ProjectID.String()),
	)

	if err := w.handler.ProcessJob(ctx, job); err != nil {
		w.logger.Error("job failed",
			zap.String("job_id", job.JobID),
			zap.String("project_id", job.ProjectID.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}

	w.logger.Info("job completed",
		zap.String("job_id", job.JobID),
		zap.String("project_id", job.ProjectID.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
}
