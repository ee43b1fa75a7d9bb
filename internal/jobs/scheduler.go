package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/config"
	"github.com/chantierdirect/backend/internal/queue"
)

// Register routes every job type to its handler
func Register(w *queue.Worker, n *NotificationJobs) {
	w.RegisterHandler(queue.JobTypeDocumentReviewed, n.HandleDocumentReviewed)
	w.RegisterHandler(queue.JobTypeVerificationReminder, n.HandleVerificationReminder)
}

// Scheduler runs the recurring sweeps
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeps    *Sweeps
	logger    *zap.Logger
	timeout   time.Duration
}

// NewScheduler schedules the reminder sweep on cfg.ReminderSpec (Paris
// time) and the backlog refresh every cfg.BacklogRefresh
func NewScheduler(cfg config.WorkerConfig, sweeps *Sweeps, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		logger.Warn("Europe/Paris timezone unavailable, scheduling in UTC", zap.Error(err))
		loc = time.UTC
	}

	s := &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		sweeps:    sweeps,
		logger:    logger,
		timeout:   5 * time.Minute,
	}
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Cron(cfg.ReminderSpec).Tag("verification_reminders").Do(s.runReminders); err != nil {
		return nil, fmt.Errorf("error scheduling reminders: %w", err)
	}

	refresh := cfg.BacklogRefresh
	if refresh <= 0 {
		refresh = time.Minute
	}
	if _, err := s.scheduler.Every(refresh).Tag("review_backlog").Do(s.runBacklog); err != nil {
		return nil, fmt.Errorf("error scheduling backlog refresh: %w", err)
	}
	return s, nil
}

// Start runs the schedules in the background
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the schedules
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Jobs returns the number of scheduled tasks
func (s *Scheduler) Jobs() int {
	return len(s.scheduler.Jobs())
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.sweeps.EnqueueReminders(ctx); err != nil {
		s.logger.Error("verification reminder sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) runBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.sweeps.RefreshBacklog(ctx); err != nil {
		s.logger.Error("review backlog refresh failed", zap.Error(err))
	}
}
