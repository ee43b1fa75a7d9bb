// Package marketplace implements projects, offers, the subcontractor
// directory and contact requests. Participation is gated on the
// verification status of the acting company.
package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/catalog"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/verification"
)

var (
	// ErrNotVerified is returned when a company must be VERIFIED to act
	ErrNotVerified = errors.New("company is not verified")
	// ErrForbidden is returned when the actor may not perform the operation
	ErrForbidden = errors.New("operation not allowed")
	// ErrInvalidTransition is returned when a project or offer already left
	// the state the operation requires
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidInput is returned for rejected field values
	ErrInvalidInput = errors.New("invalid input")
)

// ProjectRepository persists projects
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindBySlug(ctx context.Context, slug string) (*models.Project, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, status models.ProjectStatus, filter repository.ProjectFilter) ([]models.Project, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) error
}

// OfferRepository persists offers
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListForProject(ctx context.Context, projectID uuid.UUID) ([]models.Offer, error)
	ListForBidder(ctx context.Context, bidderID uuid.UUID) ([]models.Offer, error)
	Transition(ctx context.Context, id uuid.UUID, to models.OfferStatus) error
	Award(ctx context.Context, projectID, offerID uuid.UUID) error
}

// UserRepository reads company accounts
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role, filter repository.DirectoryFilter) ([]models.User, int64, error)
}

// SubmissionBatch reads the submissions of many users at once
type SubmissionBatch interface {
	ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.DocumentSubmission, error)
}

// ContactRepository persists contact requests and contact form messages
type ContactRepository interface {
	CreateRequest(ctx context.Context, request *models.ContactRequest) error
	Inbox(ctx context.Context, userID uuid.UUID) ([]models.ContactRequest, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	CreateMessage(ctx context.Context, message *models.ContactMessage) error
	ListMessages(ctx context.Context, page repository.Page) ([]models.ContactMessage, int64, error)
}

// Verifier derives the verification status of a company
type Verifier interface {
	Status(ctx context.Context, userID uuid.UUID, role models.Role) verification.Status
}

// Deps groups the collaborators of the service
type Deps struct {
	Projects    ProjectRepository
	Offers      OfferRepository
	Users       UserRepository
	Submissions SubmissionBatch
	Contacts    ContactRepository
	Verifier    Verifier
	Catalog     *catalog.Catalog
	Logger      *zap.Logger
}

// Service implements the marketplace operations
type Service struct {
	projects    ProjectRepository
	offers      OfferRepository
	users       UserRepository
	submissions SubmissionBatch
	contacts    ContactRepository
	verifier    Verifier
	catalog     *catalog.Catalog
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new marketplace service
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		projects:    d.Projects,
		offers:      d.Offers,
		users:       d.Users,
		submissions: d.Submissions,
		contacts:    d.Contacts,
		verifier:    d.Verifier,
		catalog:     d.Catalog,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) requireVerified(ctx context.Context, user *models.User) error {
	result, ok := verification.ResultFromContext(ctx, user.ID)
	status := result.Status
	if !ok {
		status = s.verifier.Status(ctx, user.ID, user.Role)
	}
	if status != verification.StatusVerified {
		return &NotVerifiedError{Status: status}
	}
	return nil
}

// NotVerifiedError carries the status that blocked the operation
type NotVerifiedError struct {
	Status verification.Status
}

func (e *NotVerifiedError) Error() string {
	return "company is not verified: " + string(e.Status)
}

// Is makes errors.Is(err, ErrNotVerified) match
func (e *NotVerifiedError) Is(target error) bool {
	return target == ErrNotVerified
}

func mapStale(err error) error {
	if errors.Is(err, repository.ErrStaleState) {
		return ErrInvalidTransition
	}
	return err
}
