package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chantierdirect/backend/internal/models"
)

// OfferStore persists bids on projects
type OfferStore struct {
	db *gorm.DB
}

// NewOfferStore creates a new offer store
func NewOfferStore(db *gorm.DB) *OfferStore {
	return &OfferStore{db: db}
}

// Create inserts an offer. A second offer by the same bidder on the same
// project returns ErrConflict.
func (s *OfferStore) Create(ctx context.Context, offer *models.Offer) error {
	offer.Status = models.OfferStatusSubmitted
	if err := s.db.WithContext(ctx).Create(offer).Error; err != nil {
		return translate(err)
	}
	return nil
}

// FindByID returns an offer by id
func (s *OfferStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := s.db.WithContext(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &offer, nil
}

// ListForProject returns the offers on a project, lowest amount first
func (s *OfferStore) ListForProject(ctx context.Context, projectID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("amount_cents ASC, created_at ASC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("error listing offers: %w", err)
	}
	return offers, nil
}

// ListForBidder returns a subcontractor's offers, newest first
func (s *OfferStore) ListForBidder(ctx context.Context, bidderID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.db.WithContext(ctx).
		Where("bidder_id = ?", bidderID).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("error listing offers: %w", err)
	}
	return offers, nil
}

// Transition moves an offer from SUBMITTED to a final status. It returns
// ErrStaleState when the offer was already decided.
func (s *OfferStore) Transition(ctx context.Context, id uuid.UUID, to models.OfferStatus) error {
	result := s.db.WithContext(ctx).Model(&models.Offer{}).
		Where("id = ? AND status = ?", id, models.OfferStatusSubmitted).
		Updates(map[string]interface{}{"status": to, "decided_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("error updating offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// Award accepts an offer, marks its project AWARDED and declines every
// other submitted offer on the project, in a single transaction.
func (s *OfferStore) Award(ctx context.Context, projectID, offerID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		result := tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", projectID, models.ProjectStatusOpen).
			Update("status", models.ProjectStatusAwarded)
		if result.Error != nil {
			return fmt.Errorf("error awarding project: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		result = tx.Model(&models.Offer{}).
			Where("id = ? AND project_id = ? AND status = ?", offerID, projectID, models.OfferStatusSubmitted).
			Updates(map[string]interface{}{"status": models.OfferStatusAccepted, "decided_at": now})
		if result.Error != nil {
			return fmt.Errorf("error accepting offer: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrStaleState
		}

		err := tx.Model(&models.Offer{}).
			Where("project_id = ? AND id <> ? AND status = ?", projectID, offerID, models.OfferStatusSubmitted).
			Updates(map[string]interface{}{"status": models.OfferStatusDeclined, "decided_at": now}).Error
		if err != nil {
			return fmt.Errorf("error declining offers: %w", err)
		}
		return nil
	})
}
