// Package resilience protects the document fetches behind verification so a
// slow or failing database degrades into fast fail-open answers.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/verification"
)

// Config tunes the guarded fetch
type Config struct {
	Timeout             time.Duration
	MinRequests         uint32
	FailureRatio        float64
	OpenTimeout         time.Duration
	HalfOpenMaxRequests uint32
}

// DefaultConfig returns the settings used when a field is left zero
func DefaultConfig() Config {
	return Config{
		Timeout:             2 * time.Second,
		MinRequests:         10,
		FailureRatio:        0.5,
		OpenTimeout:         30 * time.Second,
		HalfOpenMaxRequests: 2,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.Timeout <= 0 {
		out.Timeout = def.Timeout
	}
	if out.MinRequests == 0 {
		out.MinRequests = def.MinRequests
	}
	if out.FailureRatio <= 0 || out.FailureRatio > 1 {
		out.FailureRatio = def.FailureRatio
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = def.OpenTimeout
	}
	if out.HalfOpenMaxRequests == 0 {
		out.HalfOpenMaxRequests = def.HalfOpenMaxRequests
	}
	return out
}

// GuardedLister wraps a SubmissionLister with a timeout and a circuit breaker
type GuardedLister struct {
	next    verification.SubmissionLister
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[[]models.DocumentSubmission]
}

// NewGuardedLister creates a guarded lister around next
func NewGuardedLister(next verification.SubmissionLister, cfg Config, logger *zap.Logger) *GuardedLister {
	cfg = cfg.normalize()
	return &GuardedLister{
		next:    next,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker[[]models.DocumentSubmission](breakerSettings("document_fetch", cfg, logger)),
	}
}

func breakerSettings(name string, cfg Config, logger *zap.Logger) gobreaker.Settings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// the caller giving up is not a database failure
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}

// ListForUser implements verification.SubmissionLister
func (g *GuardedLister) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DocumentSubmission, error) {
	return g.breaker.Execute(func() ([]models.DocumentSubmission, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.next.ListForUser(ctx, userID)
	})
}

// State exposes the breaker state for health reporting
func (g *GuardedLister) State() string {
	return g.breaker.State().String()
}
