// Package documents handles compliance document uploads and their review
// by administrators.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/catalog"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/queue"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/storage"
	"github.com/chantierdirect/backend/internal/verification"
)

var (
	// ErrTypeNotAllowed is returned when the catalog does not list the
	// document type for the user's role
	ErrTypeNotAllowed = errors.New("document type not accepted for this role")
	// ErrReasonRequired is returned when a rejection has no reason
	ErrReasonRequired = errors.New("a rejection reason is required")
	// ErrInvalidTransition is returned when a review would not change the status
	ErrInvalidTransition = errors.New("document already has this status")
	// ErrForbidden is returned when a user reads another user's document
	ErrForbidden = errors.New("not allowed to access this document")
)

// Repository is the persistence the service needs
type Repository interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DocumentSubmission, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DocumentSubmission, error)
	Upsert(ctx context.Context, submission *models.DocumentSubmission) (string, error)
	Review(ctx context.Context, id uuid.UUID, change repository.ReviewChange) (*models.DocumentSubmission, error)
	ListByStatus(ctx context.Context, status models.DocumentStatus, page repository.Page) ([]models.DocumentSubmission, int64, error)
	History(ctx context.Context, submissionID uuid.UUID) ([]models.DocumentReview, error)
}

// BlobStore keeps the uploaded files
type BlobStore interface {
	Save(ctx context.Context, owner uuid.UUID, prefix, fileName string, data io.Reader) (*storage.Object, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// Service implements document upload and review
type Service struct {
	repo    Repository
	blobs   BlobStore
	catalog *catalog.Catalog
	jobs    queue.Enqueuer
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new documents service
func NewService(repo Repository, blobs BlobStore, c *catalog.Catalog, jobs queue.Enqueuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		blobs:   blobs,
		catalog: c,
		jobs:    jobs,
		logger:  logger,
		now:     time.Now,
	}
}

// Upload stores a file and records it as a PENDING submission, replacing
// any previous upload of the same type
func (s *Service) Upload(ctx context.Context, user *models.User, docType models.DocumentType, fileName string, data io.Reader) (*models.DocumentSubmission, error) {
	if _, ok := s.catalog.Lookup(user.Role, docType); !ok {
		return nil, ErrTypeNotAllowed
	}

	obj, err := s.blobs.Save(ctx, user.ID, string(docType), fileName, data)
	if err != nil {
		return nil, fmt.Errorf("error storing document: %w", err)
	}

	submission := &models.DocumentSubmission{
		UserID:     user.ID,
		Type:       docType,
		FileName:   fileName,
		FilePath:   obj.Path,
		MimeType:   obj.MimeType,
		FileSize:   obj.Size,
		UploadedAt: s.now(),
	}

	replaced, err := s.repo.Upsert(ctx, submission)
	if err != nil {
		if derr := s.blobs.Delete(ctx, obj.Path); derr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", obj.Path), zap.Error(derr))
		}
		return nil, fmt.Errorf("error saving document: %w", err)
	}

	if replaced != "" && replaced != obj.Path {
		if err := s.blobs.Delete(ctx, replaced); err != nil {
			s.logger.Warn("failed to remove replaced upload", zap.String("path", replaced), zap.Error(err))
		}
	}

	s.logger.Info("document uploaded",
		zap.String("user_id", user.ID.String()),
		zap.String("type", string(docType)),
		zap.String("submission_id", submission.ID.String()),
	)
	return submission, nil
}

// Approve marks a submission APPROVED
func (s *Service) Approve(ctx context.Context, id, adminID uuid.UUID, comment string) (*models.DocumentSubmission, error) {
	return s.review(ctx, id, repository.ReviewChange{
		Status:     models.DocumentStatusApproved,
		ReviewerID: adminID,
		Comment:    comment,
	})
}

// Reject marks a submission REJECTED. The reason is shown to the owner.
func (s *Service) Reject(ctx context.Context, id, adminID uuid.UUID, reason, comment string) (*models.DocumentSubmission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.review(ctx, id, repository.ReviewChange{
		Status:     models.DocumentStatusRejected,
		ReviewerID: adminID,
		Reason:     &reason,
		Comment:    comment,
	})
}

func (s *Service) review(ctx context.Context, id uuid.UUID, change repository.ReviewChange) (*models.DocumentSubmission, error) {
	submission, err := s.repo.Review(ctx, id, change)
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	payload := queue.DocumentReviewedPayload{
		SubmissionID: submission.ID,
		UserID:       submission.UserID,
		DocumentType: string(submission.Type),
		Status:       string(submission.Status),
	}
	if submission.RejectionReason != nil {
		payload.Reason = *submission.RejectionReason
	}
	// The review is committed; a lost email must not fail the request.
	if _, err := s.jobs.Enqueue(ctx, queue.JobTypeDocumentReviewed, payload); err != nil {
		s.logger.Error("failed to enqueue review notification",
			zap.String("submission_id", submission.ID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("document reviewed",
		zap.String("submission_id", submission.ID.String()),
		zap.String("status", string(submission.Status)),
		zap.String("reviewer_id", change.ReviewerID.String()),
	)
	return submission, nil
}

// RequirementView is one line of the upload page
type RequirementView struct {
	catalog.Requirement
	Submission *models.DocumentSubmission `json:"submission,omitempty"`
}

// Overview is the upload page model of a user
type Overview struct {
	Status       verification.Status   `json:"verification_status"`
	Access       verification.Access   `json:"access"`
	Requirements []RequirementView     `json:"requirements"`
	Items        []verification.Item   `json:"items"`
	Outstanding  []models.DocumentType `json:"outstanding"`
}

// Overview merges the catalog requirements of the user's role with the
// user's submissions and the resulting verification status
func (s *Service) Overview(ctx context.Context, user *models.User) (*Overview, error) {
	submissions, err := s.repo.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	latest := verification.LatestByType(submissions)

	requirements := s.catalog.Requirements(user.Role)
	views := make([]RequirementView, 0, len(requirements))
	for _, req := range requirements {
		view := RequirementView{Requirement: req}
		if sub, ok := latest[req.Type]; ok {
			view.Submission = &sub
		}
		views = append(views, view)
	}

	required := s.catalog.RequiredTypesForRole(user.Role)
	result := verification.Result{
		Status: verification.Compute(required, submissions),
		Items:  verification.Effective(required, submissions),
	}

	return &Overview{
		Status:       result.Status,
		Access:       verification.AccessFor(result.Status),
		Requirements: views,
		Items:        result.Items,
		Outstanding:  result.Outstanding(),
	}, nil
}

// Pending returns the review queue, oldest upload first
func (s *Service) Pending(ctx context.Context, page repository.Page) ([]models.DocumentSubmission, int64, error) {
	return s.repo.ListByStatus(ctx, models.DocumentStatusPending, page)
}

// Detail is a submission with its review history
type Detail struct {
	Submission *models.DocumentSubmission `json:"submission"`
	History    []models.DocumentReview    `json:"history"`
}

// Get returns a submission and its history
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Submission: submission, History: history}, nil
}

// Open returns the stored file of a submission. Only its owner and
// administrators may read it.
func (s *Service) Open(ctx context.Context, id uuid.UUID, requester *models.User) (*models.DocumentSubmission, io.ReadCloser, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if submission.UserID != requester.ID && !requester.IsAdmin() {
		return nil, nil, ErrForbidden
	}
	rc, err := s.blobs.Open(ctx, submission.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening document: %w", err)
	}
	return submission, rc, nil
}
