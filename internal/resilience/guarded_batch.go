package resilience

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
)

// BatchLister reads the submissions of many users at once
type BatchLister interface {
	ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.DocumentSubmission, error)
}

// GuardedBatchLister bounds batch fetches (directory pages, reminder sweeps)
// with the same timeout and its own circuit breaker
type GuardedBatchLister struct {
	next    BatchLister
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[map[uuid.UUID][]models.DocumentSubmission]
}

// NewGuardedBatchLister creates a guarded batch lister around next
func NewGuardedBatchLister(next BatchLister, cfg Config, logger *zap.Logger) *GuardedBatchLister {
	cfg = cfg.normalize()
	return &GuardedBatchLister{
		next:    next,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker[map[uuid.UUID][]models.DocumentSubmission](breakerSettings("document_batch_fetch", cfg, logger)),
	}
}

// ListForUsers implements BatchLister
func (g *GuardedBatchLister) ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.DocumentSubmission, error) {
	return g.breaker.Execute(func() (map[uuid.UUID][]models.DocumentSubmission, error) {
		ctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.next.ListForUsers(ctx, userIDs)
	})
}

// State exposes the breaker state for health reporting
func (g *GuardedBatchLister) State() string {
	return g.breaker.State().String()
}
