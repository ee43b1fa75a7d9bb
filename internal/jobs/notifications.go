// Package jobs holds the background job handlers and the recurring
// schedules that feed them.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/catalog"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/queue"
	"github.com/chantierdirect/backend/internal/services/notification"
	"github.com/chantierdirect/backend/internal/verification"
)

// UserLookup reads company accounts
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	AllByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// Evaluator computes the verification result of a company
type Evaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, role models.Role) verification.Result
}

// NotificationJobs emails users about their documents
type NotificationJobs struct {
	users       UserLookup
	evaluator   Evaluator
	notifier    notification.Notifier
	catalog     *catalog.Catalog
	frontendURL string
	logger      *zap.Logger
}

// NewNotificationJobs creates the notification job handlers
func NewNotificationJobs(users UserLookup, evaluator Evaluator, notifier notification.Notifier, c *catalog.Catalog, frontendURL string, logger *zap.Logger) *NotificationJobs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationJobs{
		users:       users,
		evaluator:   evaluator,
		notifier:    notifier,
		catalog:     c,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

func (n *NotificationJobs) label(role models.Role, docType models.DocumentType) string {
	if req, ok := n.catalog.Lookup(role, docType); ok && req.Label != "" {
		return req.Label
	}
	return string(docType)
}

func displayName(u *models.User) string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HandleDocumentReviewed emails the owner of a reviewed document
func (n *NotificationJobs) HandleDocumentReviewed(ctx context.Context, job *queue.Job) error {
	var payload queue.DocumentReviewedPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}

	user, err := n.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("error loading user %s: %w", payload.UserID, err)
	}

	msg, err := notification.DocumentReviewedMessage(user.Email, notification.DocumentReviewed{
		Name:          displayName(user),
		DocumentLabel: n.label(user.Role, models.DocumentType(payload.DocumentType)),
		Approved:      payload.Status == string(models.DocumentStatusApproved),
		Reason:        payload.Reason,
		Link:          n.frontendURL + "/documents",
	})
	if err != nil {
		return err
	}
	return n.notifier.Send(ctx, msg)
}

// HandleVerificationReminder emails a subcontractor the documents still
// blocking their account. Accounts that are no longer BLOCKED are skipped.
func (n *NotificationJobs) HandleVerificationReminder(ctx context.Context, job *queue.Job) error {
	var payload queue.VerificationReminderPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}

	user, err := n.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("error loading user %s: %w", payload.UserID, err)
	}

	result := n.evaluator.Evaluate(ctx, user.ID, user.Role)
	if result.Status != verification.StatusBlocked {
		n.logger.Debug("skipping reminder, account not blocked",
			zap.String("user_id", user.ID.String()),
			zap.String("status", string(result.Status)),
		)
		return nil
	}

	outstanding := result.Outstanding()
	labels := make([]string, 0, len(outstanding))
	for _, t := range outstanding {
		labels = append(labels, n.label(user.Role, t))
	}

	msg, err := notification.VerificationReminderMessage(user.Email, notification.VerificationReminder{
		Name:        displayName(user),
		Outstanding: labels,
		Link:        n.frontendURL + "/documents",
	})
	if err != nil {
		return err
	}
	return n.notifier.Send(ctx, msg)
}
