package queue

import (
	"math"
	"math/rand"
	"time"
)

const (
	// DefaultMaxAttempts is the number of runs before a job is dead-lettered
	DefaultMaxAttempts = 5
	// DefaultTTL bounds how long job bodies stay in redis
	DefaultTTL = 24 * time.Hour
)

// Stats is a snapshot of the queue sizes
type Stats struct {
	Waiting    int64 `json:"waiting"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Dead       int64 `json:"dead"`
}

// calculateBackoff returns the delay before retry number attempt.
// Exponential from 5s, capped at one hour, with ±20% jitter.
func calculateBackoff(attempt int) time.Duration {
	base := 5.0
	max := 3600.0

	seconds := math.Min(max, base*math.Pow(2, float64(attempt-1)))

	jitter := seconds * 0.2
	seconds = seconds - jitter + (rand.Float64() * jitter * 2)

	return time.Duration(seconds * float64(time.Second))
}
