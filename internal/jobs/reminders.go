package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/catalog"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/queue"
	"github.com/chantierdirect/backend/internal/verification"
)

// SubmissionBatch reads the submissions of many users at once
type SubmissionBatch interface {
	ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.DocumentSubmission, error)
}

// PendingCounter counts submissions by status
type PendingCounter interface {
	CountByStatus(ctx context.Context, status models.DocumentStatus) (int64, error)
}

// BacklogGauge receives the size of the review backlog
type BacklogGauge interface {
	SetPendingReviews(n int64)
}

const reminderBatchSize = 200

// Sweeps are the recurring tasks run by the scheduler
type Sweeps struct {
	users       UserLookup
	submissions SubmissionBatch
	pending     PendingCounter
	gauge       BacklogGauge
	jobs        queue.Enqueuer
	catalog     *catalog.Catalog
	logger      *zap.Logger
}

// NewSweeps creates the recurring tasks
func NewSweeps(users UserLookup, submissions SubmissionBatch, pending PendingCounter, gauge BacklogGauge, jobs queue.Enqueuer, c *catalog.Catalog, logger *zap.Logger) *Sweeps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeps{
		users:       users,
		submissions: submissions,
		pending:     pending,
		gauge:       gauge,
		jobs:        jobs,
		catalog:     c,
		logger:      logger,
	}
}

// EnqueueReminders queues a reminder for every BLOCKED subcontractor.
// Submissions are read in batches; a failed batch is skipped rather than
// treated as blocked.
func (s *Sweeps) EnqueueReminders(ctx context.Context) (int, error) {
	users, err := s.users.AllByRole(ctx, models.RoleSousTraitant)
	if err != nil {
		return 0, fmt.Errorf("error listing subcontractors: %w", err)
	}
	required := s.catalog.RequiredTypesForRole(models.RoleSousTraitant)

	queued := 0
	for start := 0; start < len(users); start += reminderBatchSize {
		end := start + reminderBatchSize
		if end > len(users) {
			end = len(users)
		}
		batch := users[start:end]

		ids := make([]uuid.UUID, len(batch))
		for i, u := range batch {
			ids[i] = u.ID
		}
		grouped, err := s.submissions.ListForUsers(ctx, ids)
		if err != nil {
			s.logger.Warn("skipping reminder batch", zap.Int("size", len(batch)), zap.Error(err))
			continue
		}

		for _, u := range batch {
			if verification.Compute(required, grouped[u.ID]) != verification.StatusBlocked {
				continue
			}
			if _, err := s.jobs.Enqueue(ctx, queue.JobTypeVerificationReminder, queue.VerificationReminderPayload{UserID: u.ID}); err != nil {
				return queued, fmt.Errorf("error enqueueing reminder: %w", err)
			}
			queued++
		}
	}

	s.logger.Info("verification reminders queued", zap.Int("count", queued), zap.Int("subcontractors", len(users)))
	return queued, nil
}

// RefreshBacklog publishes the number of submissions awaiting review
func (s *Sweeps) RefreshBacklog(ctx context.Context) error {
	n, err := s.pending.CountByStatus(ctx, models.DocumentStatusPending)
	if err != nil {
		return err
	}
	s.gauge.SetPendingReviews(n)
	return nil
}
