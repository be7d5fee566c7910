package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/skillbase/backend/internal/domain/answering"
)

// InMemoryJobQueue implements answering.JobQueue on a buffered channel.
// Suitable for single-process deployments and testing; jobs do not survive a
// restart.
type InMemoryJobQueue struct {
	jobs chan answering.DispatchJob
}

// NewInMemoryJobQueue creates an in-memory queue with the given capacity
func NewInMemoryJobQueue(capacity int) *InMemoryJobQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &InMemoryJobQueue{
		jobs: make(chan answering.DispatchJob, capacity),
	}
}

// Enqueue submits a job and returns its id
func (q *InMemoryJobQueue) Enqueue(ctx context.Context, job answering.DispatchJob) (string, error) {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	select {
	case q.jobs <- job:
		return job.JobID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", errors.New("job queue is full")
	}
}

// Dequeue blocks for the next job or until the context is cancelled
func (q *InMemoryJobQueue) Dequeue(ctx context.Context) (*answering.DispatchJob, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsConfigured reports true; the channel is always available
func (q *InMemoryJobQueue) IsConfigured() bool {
	return true
}

// Len returns the number of queued jobs (for testing)
func (q *InMemoryJobQueue) Len() int {
	return len(q.jobs)
}

// Ensure InMemoryJobQueue implements JobQueue
var _ answering.JobQueue = (*InMemoryJobQueue)(nil)
