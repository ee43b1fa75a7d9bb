package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chantierdirect/backend/internal/models"
)

// ProjectFilter narrows the open project listing
type ProjectFilter struct {
	Trade      string
	Department string
	OwnerID    *uuid.UUID
	Page       Page
}

// ProjectStore persists projects
type ProjectStore struct {
	db *gorm.DB
}

// NewProjectStore creates a new project store
func NewProjectStore(db *gorm.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Create inserts a project. A duplicate slug returns ErrConflict.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return translate(err)
	}
	return nil
}

// FindByID returns a project by id
func (s *ProjectStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// FindBySlug returns a project by slug
func (s *ProjectStore) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&project).Error; err != nil {
		return nil, translate(err)
	}
	return &project, nil
}

// SlugExists reports whether a slug is taken
func (s *ProjectStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Project{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking slug: %w", err)
	}
	return count > 0, nil
}

// List returns projects in a status matching the filter, newest first
func (s *ProjectStore) List(ctx context.Context, status models.ProjectStatus, filter ProjectFilter) ([]models.Project, int64, error) {
	page := filter.Page.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.Trade != "" {
		query = query.Where("trade = ?", filter.Trade)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting projects: %w", err)
	}

	var projects []models.Project
	err := query.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("error listing projects: %w", err)
	}
	return projects, total, nil
}

// UpdateStatus moves a project from one status to another. It returns
// ErrStaleState when the project is not in the expected status.
func (s *ProjectStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) error {
	result := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("error updating project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
