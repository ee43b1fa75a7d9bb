package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
)

// ProjectInput holds the fields of a new project
type ProjectInput struct {
	Title       string
	Description string
	Trade       string
	City        string
	Department  string
	BudgetCents *int64
	Deadline    *time.Time
}

// CreateProject posts a project on behalf of a donneur d'ordre
func (s *Service) CreateProject(ctx context.Context, owner *models.User, in ProjectInput) (*models.Project, error) {
	if owner.Role != models.RoleDonneurOrdre {
		return nil, ErrForbidden
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.BudgetCents != nil && *in.BudgetCents < 0 {
		return nil, fmt.Errorf("%w: budget must be positive", ErrInvalidInput)
	}
	if in.Deadline != nil && in.Deadline.Before(s.now()) {
		return nil, fmt.Errorf("%w: deadline is in the past", ErrInvalidInput)
	}
	if err := s.requireVerified(ctx, owner); err != nil {
		return nil, err
	}

	projectSlug, err := s.uniqueSlug(ctx, title)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		OwnerID:     owner.ID,
		Title:       title,
		Slug:        projectSlug,
		Description: in.Description,
		Trade:       in.Trade,
		City:        in.City,
		Department:  in.Department,
		BudgetCents: in.BudgetCents,
		Deadline:    in.Deadline,
		Status:      models.ProjectStatusOpen,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("owner_id", owner.ID.String()),
	)
	return project, nil
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "chantier"
	}
	candidate := base
	for i := 0; i < 5; i++ {
		exists, err := s.projects.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:8]
	}
	return "", fmt.Errorf("could not allocate a slug for %q", title)
}

// ListOpenProjects returns the projects accepting offers
func (s *Service) ListOpenProjects(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, int64, error) {
	return s.projects.List(ctx, models.ProjectStatusOpen, filter)
}

// ListOwnProjects returns every project of a donneur d'ordre
func (s *Service) ListOwnProjects(ctx context.Context, owner *models.User, page repository.Page) ([]models.Project, int64, error) {
	return s.projects.List(ctx, "", repository.ProjectFilter{OwnerID: &owner.ID, Page: page})
}

// GetProject finds a project by id or slug
func (s *Service) GetProject(ctx context.Context, ref string) (*models.Project, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.projects.FindByID(ctx, id)
	}
	return s.projects.FindBySlug(ctx, ref)
}

// CloseProject stops an open project from receiving offers
func (s *Service) CloseProject(ctx context.Context, actor *models.User, projectID uuid.UUID) error {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != actor.ID && !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.projects.UpdateStatus(ctx, projectID, models.ProjectStatusOpen, models.ProjectStatusClosed); err != nil {
		return mapStale(err)
	}
	return nil
}
