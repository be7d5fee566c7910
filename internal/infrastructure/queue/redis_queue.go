package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/skillbase/backend/internal/domain/answering"
)

// Config holds Redis queue configuration
type Config struct {
	Host        string
	Port        int
	Password    string
	DB          int
	Name        string
	PollTimeout time.Duration
}

// RedisJobQueue implements answering.JobQueue on a Redis list. Jobs are
// pushed with LPUSH and consumed with BRPOP, so delivery order is FIFO and a
// job goes to exactly one worker.
type RedisJobQueue struct {
	client      *redis.Client
	name        string
	pollTimeout time.Duration
}

// NewRedisJobQueue creates a new Redis-backed job queue
func NewRedisJobQueue(cfg Config) (*RedisJobQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "skillbase:answering:jobs"
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}

	return &RedisJobQueue{
		client:      client,
		name:        name,
		pollTimeout: pollTimeout,
	}, nil
}

// NewRedisJobQueueWithClient creates a queue with an existing Redis client
func NewRedisJobQueueWithClient(client *redis.Client, name string, pollTimeout time.Duration) *RedisJobQueue {
	if name == "" {
		name = "skillbase:answering:jobs"
	}
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &RedisJobQueue{
		client:      client,
		name:        name,
		pollTimeout: pollTimeout,
	}
}

// Enqueue submits a job and returns its id
func (q *RedisJobQueue) Enqueue(ctx context.Context, job answering.DispatchJob) (string, error) {
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to serialize job: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, payload).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.JobID, nil
}

// Dequeue blocks up to the poll timeout for the next job. A nil job with a
// nil error means the timeout elapsed with nothing to do.
func (q *RedisJobQueue) Dequeue(ctx context.Context) (*answering.DispatchJob, error) {
	values, err := q.client.BRPop(ctx, q.pollTimeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	// BRPOP returns [key, value].
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply length: %d", len(values))
	}
	var job answering.DispatchJob
	if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to deserialize job: %w", err)
	}
	return &job, nil
}

// IsConfigured reports that a queue backend is available. Construction
// already verified the connection.
func (q *RedisJobQueue) IsConfigured() bool {
	return true
}

// Size returns the number of queued jobs (for testing/monitoring)
func (q *RedisJobQueue) Size(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}

// Close closes the Redis client
func (q *RedisJobQueue) Close() error {
	return q.client.Close()
}

// Ensure RedisJobQueue implements JobQueue
var _ answering.JobQueue = (*RedisJobQueue)(nil)

// UnconfiguredQueue is the queue used when no broker is configured. Dispatch
// checks IsConfigured first and falls back to background processing, so
// Enqueue is only reachable through misuse.
type UnconfiguredQueue struct{}

// NewUnconfiguredQueue creates a queue placeholder that reports unconfigured
func NewUnconfiguredQueue() *UnconfiguredQueue {
	return &UnconfiguredQueue{}
}

// Enqueue always fails
func (UnconfiguredQueue) Enqueue(ctx context.Context, job answering.DispatchJob) (string, error) {
	return "", errors.New("no job queue configured")
}

// IsConfigured reports false
func (UnconfiguredQueue) IsConfigured() bool {
	return false
}

// Ensure UnconfiguredQueue implements JobQueue
var _ answering.JobQueue = (*UnconfiguredQueue)(nil)
