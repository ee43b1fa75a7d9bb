package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RedisQueue stores jobs in redis. Ready jobs live in a list, retries wait
// in a sorted set scored by their run time, jobs in flight are kept in a
// hash and exhausted jobs are pushed to a dead letter list.
type RedisQueue struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisQueue creates a queue whose keys start with prefix
func NewRedisQueue(client redis.UniversalClient, prefix string, logger *zap.Logger) *RedisQueue {
	if prefix == "" {
		prefix = "chantier"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisQueue{client: client, prefix: prefix, logger: logger, now: time.Now}
}

func (q *RedisQueue) readyKey() string      { return q.prefix + ":queue:ready" }
func (q *RedisQueue) delayedKey() string    { return q.prefix + ":queue:delayed" }
func (q *RedisQueue) processingKey() string { return q.prefix + ":queue:processing" }
func (q *RedisQueue) deadKey() string       { return q.prefix + ":queue:dead" }

func (q *RedisQueue) newJob(jobType JobType, payload interface{}) (*Job, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	now := q.now()
	return &Job{
		ID:          uuid.New().String(),
		Type:        jobType,
		Payload:     payloadBytes,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
		RunAt:       now,
	}, nil
}

// Enqueue adds a job that is ready to run
func (q *RedisQueue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) (string, error) {
	job, err := q.newJob(jobType, payload)
	if err != nil {
		return "", err
	}
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.readyKey(), jobBytes).Err(); err != nil {
		return "", fmt.Errorf("failed to push job to queue: %w", err)
	}
	return job.ID, nil
}

// EnqueueIn adds a job that becomes ready after delay
func (q *RedisQueue) EnqueueIn(ctx context.Context, jobType JobType, payload interface{}, delay time.Duration) (string, error) {
	job, err := q.newJob(jobType, payload)
	if err != nil {
		return "", err
	}
	job.RunAt = job.RunAt.Add(delay)
	if err := q.schedule(ctx, job); err != nil {
		return "", err
	}
	return job.ID, nil
}

func (q *RedisQueue) schedule(ctx context.Context, job *Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	err = q.client.ZAdd(ctx, q.delayedKey(), &redis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: jobBytes,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add job to delayed queue: %w", err)
	}
	return nil
}

// PromoteDue moves delayed jobs whose run time has passed to the ready
// list. It returns how many jobs were moved.
func (q *RedisQueue) PromoteDue(ctx context.Context) (int, error) {
	due, err := q.client.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read delayed jobs: %w", err)
	}

	moved := 0
	for _, member := range due {
		// Only the worker that removes the member pushes it.
		removed, err := q.client.ZRem(ctx, q.delayedKey(), member).Result()
		if err != nil {
			return moved, fmt.Errorf("failed to remove delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.readyKey(), member).Err(); err != nil {
			return moved, fmt.Errorf("failed to move delayed job: %w", err)
		}
		moved++
	}
	return moved, nil
}

// Dequeue blocks up to timeout for the next ready job. It returns nil
// without error when no job arrived.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	if _, err := q.PromoteDue(ctx); err != nil {
		q.logger.Warn("failed to promote delayed jobs", zap.Error(err))
	}

	result, err := q.client.BRPop(ctx, timeout, q.readyKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job from queue: %w", err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected result format from BRPOP")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	job.Attempts++

	if err := q.client.HSet(ctx, q.processingKey(), job.ID, result[1]).Err(); err != nil {
		q.logger.Warn("failed to track job in flight", zap.String("job_id", job.ID), zap.Error(err))
	}
	return &job, nil
}

// Complete drops a finished job
func (q *RedisQueue) Complete(ctx context.Context, job *Job) error {
	if err := q.client.HDel(ctx, q.processingKey(), job.ID).Err(); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// Fail schedules a retry with exponential backoff, or dead-letters the job
// once its attempts are exhausted
func (q *RedisQueue) Fail(ctx context.Context, job *Job, jobErr error) error {
	if err := q.client.HDel(ctx, q.processingKey(), job.ID).Err(); err != nil {
		return fmt.Errorf("failed to release job: %w", err)
	}
	if jobErr != nil {
		job.LastError = jobErr.Error()
	}

	if job.Attempts >= job.MaxAttempts {
		jobBytes, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}
		if err := q.client.LPush(ctx, q.deadKey(), jobBytes).Err(); err != nil {
			return fmt.Errorf("failed to dead-letter job: %w", err)
		}
		q.logger.Error("job exhausted its attempts",
			zap.String("job_id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Int("attempts", job.Attempts),
			zap.String("last_error", job.LastError),
		)
		return nil
	}

	job.RunAt = q.now().Add(calculateBackoff(job.Attempts))
	return q.schedule(ctx, job)
}

// Stats returns the current queue sizes
func (q *RedisQueue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.client.Pipeline()
	waiting := pipe.LLen(ctx, q.readyKey())
	processing := pipe.HLen(ctx, q.processingKey())
	delayed := pipe.ZCard(ctx, q.delayedKey())
	dead := pipe.LLen(ctx, q.deadKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return Stats{
		Waiting:    waiting.Val(),
		Processing: processing.Val(),
		Delayed:    delayed.Val(),
		Dead:       dead.Val(),
	}, nil
}
