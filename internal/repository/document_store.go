package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chantierdirect/backend/internal/models"
)

// DocumentStore persists document submissions and their review history
type DocumentStore struct {
	db *gorm.DB
}

// NewDocumentStore creates a new document store
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// ListForUser returns the user's submissions, most recent upload first
func (s *DocumentStore) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.DocumentSubmission, error) {
	var submissions []models.DocumentSubmission
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}
	return submissions, nil
}

// ListForUsers returns the submissions of several users in one query
func (s *DocumentStore) ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.DocumentSubmission, error) {
	grouped := make(map[uuid.UUID][]models.DocumentSubmission, len(userIDs))
	if len(userIDs) == 0 {
		return grouped, nil
	}

	var submissions []models.DocumentSubmission
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("uploaded_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}

	for _, sub := range submissions {
		grouped[sub.UserID] = append(grouped[sub.UserID], sub)
	}
	return grouped, nil
}

// FindByID returns a single submission
func (s *DocumentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.DocumentSubmission, error) {
	var submission models.DocumentSubmission
	if err := s.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &submission, nil
}

// Upsert stores an upload. An existing submission for the same user and
// type is replaced and goes back to PENDING. It returns the file path of
// the replaced upload, if any.
func (s *DocumentStore) Upsert(ctx context.Context, submission *models.DocumentSubmission) (string, error) {
	var replacedPath string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.DocumentSubmission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND type = ?", submission.UserID, submission.Type).
			First(&existing).Error

		var previous models.DocumentStatus
		switch {
		case err == nil:
			previous = existing.Status
			replacedPath = existing.FilePath

			submission.ID = existing.ID
			submission.CreatedAt = existing.CreatedAt
			submission.Status = models.DocumentStatusPending
			submission.RejectionReason = nil
			submission.ReviewedBy = nil
			submission.ReviewedAt = nil
			if err := tx.Save(submission).Error; err != nil {
				return fmt.Errorf("error replacing document: %w", err)
			}
		case translate(err) == ErrNotFound:
			submission.Status = models.DocumentStatusPending
			if err := tx.Create(submission).Error; err != nil {
				return fmt.Errorf("error creating document: %w", translate(err))
			}
		default:
			return fmt.Errorf("error checking existing document: %w", err)
		}

		review := models.DocumentReview{
			SubmissionID:   submission.ID,
			PreviousStatus: previous,
			NewStatus:      models.DocumentStatusPending,
			ChangedBy:      submission.UserID,
			Comment:        "Document uploaded",
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("error creating history: %w", err)
		}
		return nil
	})

	return replacedPath, err
}

// ReviewChange is an administrative decision on a submission
type ReviewChange struct {
	Status     models.DocumentStatus
	ReviewerID uuid.UUID
	Reason     *string
	Comment    string
}

// Review applies an administrative decision and records it in the history.
// It returns ErrStaleState when the submission already has that status.
func (s *DocumentStore) Review(ctx context.Context, id uuid.UUID, change ReviewChange) (*models.DocumentSubmission, error) {
	var submission models.DocumentSubmission

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&submission, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if submission.Status == change.Status {
			return ErrStaleState
		}

		previous := submission.Status
		now := time.Now()
		submission.Status = change.Status
		submission.ReviewedBy = &change.ReviewerID
		submission.ReviewedAt = &now
		submission.RejectionReason = nil
		if change.Status == models.DocumentStatusRejected {
			submission.RejectionReason = change.Reason
		}

		if err := tx.Save(&submission).Error; err != nil {
			return fmt.Errorf("error updating document: %w", err)
		}

		review := models.DocumentReview{
			SubmissionID:   submission.ID,
			PreviousStatus: previous,
			NewStatus:      change.Status,
			ChangedBy:      change.ReviewerID,
			Comment:        change.Comment,
			CreatedAt:      now,
		}
		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("error creating history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListByStatus returns a page of submissions in a status, oldest upload first
func (s *DocumentStore) ListByStatus(ctx context.Context, status models.DocumentStatus, page Page) ([]models.DocumentSubmission, int64, error) {
	page = page.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.DocumentSubmission{}).Where("status = ?", status).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting documents: %w", err)
	}

	var submissions []models.DocumentSubmission
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("uploaded_at ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&submissions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing documents: %w", err)
	}
	return submissions, total, nil
}

// CountByStatus counts submissions in a status
func (s *DocumentStore) CountByStatus(ctx context.Context, status models.DocumentStatus) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.DocumentSubmission{}).Where("status = ?", status).Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("error counting documents: %w", err)
	}
	return total, nil
}

// History returns the review history of a submission, newest first
func (s *DocumentStore) History(ctx context.Context, submissionID uuid.UUID) ([]models.DocumentReview, error) {
	var history []models.DocumentReview
	err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("error listing history: %w", err)
	}
	return history, nil
}
