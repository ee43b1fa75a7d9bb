// Package verification derives a user's marketplace-participation status
// from the documents they have on file.
package verification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/catalog"
	"github.com/chantierdirect/backend/internal/models"
)

// SubmissionLister returns the documents currently on file for a user
type SubmissionLister interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DocumentSubmission, error)
}

// Observer receives one call per evaluation
type Observer interface {
	ObserveVerification(status string, failedOpen bool)
}

// Item is the effective state of one required document type
type Item struct {
	Type            models.DocumentType `json:"type"`
	Status          EffectiveStatus     `json:"status"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
}

// Result is the outcome of an evaluation
type Result struct {
	Status     Status `json:"status"`
	Items      []Item `json:"items"`
	FailedOpen bool   `json:"-"`
}

// Outstanding returns the required types that are missing or rejected
func (r Result) Outstanding() []models.DocumentType {
	var types []models.DocumentType
	for _, item := range r.Items {
		if item.Status == EffectiveMissing || item.Status == EffectiveRejected {
			types = append(types, item.Type)
		}
	}
	return types
}

// Compute derives the status from the required types and the submissions
// on file. Types not in required are ignored.
func Compute(required []models.DocumentType, submissions []models.DocumentSubmission) Status {
	return fold(Effective(required, submissions))
}

// Resolve is Compute for a fetch that may have failed. Any fetch error
// grants VERIFIED: a failed status check never blocks a user.
func Resolve(required []models.DocumentType, submissions []models.DocumentSubmission, fetchErr error) Status {
	if fetchErr != nil {
		return StatusVerified
	}
	return Compute(required, submissions)
}

// Effective returns one item per required type, in the order given
func Effective(required []models.DocumentType, submissions []models.DocumentSubmission) []Item {
	latest := LatestByType(submissions)

	items := make([]Item, 0, len(required))
	for _, docType := range required {
		sub, ok := latest[docType]
		if !ok {
			items = append(items, Item{Type: docType, Status: EffectiveMissing})
			continue
		}
		item := Item{Type: docType, Status: EffectiveStatus(sub.Status)}
		if sub.Status == models.DocumentStatusRejected && sub.RejectionReason != nil {
			item.RejectionReason = *sub.RejectionReason
		}
		items = append(items, item)
	}
	return items
}

// LatestByType keeps the most recently uploaded submission per type. On
// equal upload times the later element wins.
func LatestByType(submissions []models.DocumentSubmission) map[models.DocumentType]models.DocumentSubmission {
	latest := make(map[models.DocumentType]models.DocumentSubmission, len(submissions))
	for _, sub := range submissions {
		current, ok := latest[sub.Type]
		if !ok || !sub.UploadedAt.Before(current.UploadedAt) {
			latest[sub.Type] = sub
		}
	}
	return latest
}

func fold(items []Item) Status {
	allApproved := true
	blocked := false
	for _, item := range items {
		switch item.Status {
		case EffectiveApproved:
		case EffectiveRejected, EffectiveMissing:
			allApproved = false
			blocked = true
		default:
			allApproved = false
		}
	}

	switch {
	case allApproved:
		return StatusVerified
	case blocked:
		return StatusBlocked
	default:
		return StatusPending
	}
}

// Engine evaluates users against the document catalog
type Engine struct {
	catalog  *catalog.Catalog
	store    SubmissionLister
	logger   *zap.Logger
	observer Observer
}

// NewEngine creates a new verification engine
func NewEngine(c *catalog.Catalog, store SubmissionLister, logger *zap.Logger, observer Observer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		catalog:  c,
		store:    store,
		logger:   logger,
		observer: observer,
	}
}

// RequiredTypes returns the mandatory document types for a role
func (e *Engine) RequiredTypes(role models.Role) []models.DocumentType {
	return e.catalog.RequiredTypesForRole(role)
}

// Fetch reads the user's submissions. It performs exactly one store call.
func (e *Engine) Fetch(ctx context.Context, userID uuid.UUID) ([]models.DocumentSubmission, error) {
	return e.store.ListForUser(ctx, userID)
}

// Evaluate computes the verification result for a user
func (e *Engine) Evaluate(ctx context.Context, userID uuid.UUID, role models.Role) Result {
	required := e.catalog.RequiredTypesForRole(role)
	if len(required) == 0 {
		e.observe(StatusVerified, false)
		return Result{Status: StatusVerified, Items: []Item{}}
	}

	submissions, err := e.Fetch(ctx, userID)
	if err != nil {
		e.logger.Warn("document fetch failed, granting access",
			zap.String("user_id", userID.String()),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		e.observe(StatusVerified, true)
		return Result{Status: Resolve(required, nil, err), Items: []Item{}, FailedOpen: true}
	}

	items := Effective(required, submissions)
	status := fold(items)
	e.observe(status, false)
	return Result{Status: status, Items: items}
}

// Status is Evaluate without the per-type breakdown
func (e *Engine) Status(ctx context.Context, userID uuid.UUID, role models.Role) Status {
	return e.Evaluate(ctx, userID, role).Status
}

func (e *Engine) observe(status Status, failedOpen bool) {
	if e.observer != nil {
		e.observer.ObserveVerification(string(status), failedOpen)
	}
}
