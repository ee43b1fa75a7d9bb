package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chantierdirect/backend/internal/models"
)

// DirectoryFilter narrows a role listing
type DirectoryFilter struct {
	Query      string
	Trade      string
	Department string
	Page       Page
}

// UserStore persists user accounts
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new user store
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user. A duplicate email returns ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

// FindByEmail returns the active user with the given email
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByID returns a user by id
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ListByRole returns active users of a role matching the filter, ordered by company name
func (s *UserStore) ListByRole(ctx context.Context, role models.Role, filter DirectoryFilter) ([]models.User, int64, error) {
	page := filter.Page.Normalize()

	query := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND is_active = ?", role, true)
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("company_name ILIKE ?", "%"+q+"%")
	}
	if filter.Trade != "" {
		query = query.Where("trade = ?", filter.Trade)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	var users []models.User
	err := query.Order("company_name ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	return users, total, nil
}

// AllByRole returns every active user of a role
func (s *UserStore) AllByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", role, true).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// UpdateLastLogin stamps the user's last login time
func (s *UserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now()).Error
}
