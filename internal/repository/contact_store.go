package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chantierdirect/backend/internal/models"
)

// ContactStore persists contact requests and public contact form messages
type ContactStore struct {
	db *gorm.DB
}

// NewContactStore creates a new contact store
func NewContactStore(db *gorm.DB) *ContactStore {
	return &ContactStore{db: db}
}

// CreateRequest stores a contact request between two companies
func (s *ContactStore) CreateRequest(ctx context.Context, request *models.ContactRequest) error {
	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("error creating contact request: %w", translate(err))
	}
	return nil
}

// Inbox returns the contact requests received by a user, newest first
func (s *ContactStore) Inbox(ctx context.Context, userID uuid.UUID) ([]models.ContactRequest, error) {
	var requests []models.ContactRequest
	err := s.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("error listing contact requests: %w", err)
	}
	return requests, nil
}

// MarkRead stamps a received request as read
func (s *ContactStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.ContactRequest{}).
		Where("id = ? AND to_user_id = ?", id, userID).
		Update("read_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("error updating contact request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMessage stores a public contact form message
func (s *ContactStore) CreateMessage(ctx context.Context, message *models.ContactMessage) error {
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("error creating contact message: %w", err)
	}
	return nil
}

// ListMessages returns a page of contact form messages, newest first
func (s *ContactStore) ListMessages(ctx context.Context, page Page) ([]models.ContactMessage, int64, error) {
	page = page.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.ContactMessage{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting contact messages: %w", err)
	}

	var messages []models.ContactMessage
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing contact messages: %w", err)
	}
	return messages, total, nil
}
