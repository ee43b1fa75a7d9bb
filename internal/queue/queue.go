// Package queue implements a redis-backed background job queue and the
// worker pool that drains it.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JobType identifies the handler a job is routed to
type JobType string

// Job is a unit of background work
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	RunAt       time.Time       `json:"run_at"`
}

// Decode unmarshals the job payload into v
func (j *Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", j.Type, err)
	}
	return nil
}

// Enqueuer is the producer side of the queue
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType JobType, payload interface{}) (string, error)
}

// Source is the consumer side of the queue
type Source interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	Complete(ctx context.Context, job *Job) error
	Fail(ctx context.Context, job *Job, jobErr error) error
}
