package marketplace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chantierdirect/backend/internal/catalog"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/verification"
)

type MockProjects struct{ mock.Mock }

func (m *MockProjects) Create(ctx context.Context, project *models.Project) error {
	return m.Called(ctx, project).Error(0)
}

func (m *MockProjects) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *MockProjects) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	args := m.Called(ctx, slug)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *MockProjects) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockProjects) List(ctx context.Context, status models.ProjectStatus, filter repository.ProjectFilter) ([]models.Project, int64, error) {
	args := m.Called(ctx, status, filter)
	p, _ := args.Get(0).([]models.Project)
	return p, args.Get(1).(int64), args.Error(2)
}

func (m *MockProjects) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.ProjectStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

type MockOffers struct{ mock.Mock }

func (m *MockOffers) Create(ctx context.Context, offer *models.Offer) error {
	return m.Called(ctx, offer).Error(0)
}

func (m *MockOffers) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Offer)
	return o, args.Error(1)
}

func (m *MockOffers) ListForProject(ctx context.Context, projectID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, projectID)
	o, _ := args.Get(0).([]models.Offer)
	return o, args.Error(1)
}

func (m *MockOffers) ListForBidder(ctx context.Context, bidderID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, bidderID)
	o, _ := args.Get(0).([]models.Offer)
	return o, args.Error(1)
}

func (m *MockOffers) Transition(ctx context.Context, id uuid.UUID, to models.OfferStatus) error {
	return m.Called(ctx, id, to).Error(0)
}

func (m *MockOffers) Award(ctx context.Context, projectID, offerID uuid.UUID) error {
	return m.Called(ctx, projectID, offerID).Error(0)
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockUsers) ListByRole(ctx context.Context, role models.Role, filter repository.DirectoryFilter) ([]models.User, int64, error) {
	args := m.Called(ctx, role, filter)
	u, _ := args.Get(0).([]models.User)
	return u, args.Get(1).(int64), args.Error(2)
}

type MockSubmissions struct{ mock.Mock }

func (m *MockSubmissions) ListForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.DocumentSubmission, error) {
	args := m.Called(ctx, userIDs)
	s, _ := args.Get(0).(map[uuid.UUID][]models.DocumentSubmission)
	return s, args.Error(1)
}

type MockContacts struct{ mock.Mock }

func (m *MockContacts) CreateRequest(ctx context.Context, request *models.ContactRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *MockContacts) Inbox(ctx context.Context, userID uuid.UUID) ([]models.ContactRequest, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).([]models.ContactRequest)
	return r, args.Error(1)
}

func (m *MockContacts) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockContacts) CreateMessage(ctx context.Context, message *models.ContactMessage) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockContacts) ListMessages(ctx context.Context, page repository.Page) ([]models.ContactMessage, int64, error) {
	args := m.Called(ctx, page)
	r, _ := args.Get(0).([]models.ContactMessage)
	return r, args.Get(1).(int64), args.Error(2)
}

// stubVerifier returns a fixed status per user, VERIFIED by default
type stubVerifier map[uuid.UUID]verification.Status

func (v stubVerifier) Status(_ context.Context, userID uuid.UUID, _ models.Role) verification.Status {
	if s, ok := v[userID]; ok {
		return s
	}
	return verification.StatusVerified
}

type fixture struct {
	svc         *Service
	projects    *MockProjects
	offers      *MockOffers
	users       *MockUsers
	submissions *MockSubmissions
	contacts    *MockContacts
	verifier    stubVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)

	f := &fixture{
		projects:    &MockProjects{},
		offers:      &MockOffers{},
		users:       &MockUsers{},
		submissions: &MockSubmissions{},
		contacts:    &MockContacts{},
		verifier:    stubVerifier{},
	}
	f.svc = NewService(Deps{
		Projects:    f.projects,
		Offers:      f.offers,
		Users:       f.users,
		Submissions: f.submissions,
		Contacts:    f.contacts,
		Verifier:    f.verifier,
		Catalog:     c,
	})
	return f
}

func newUser(role models.Role) *models.User {
	u := &models.User{Role: role, CompanyName: string(role) + " SARL"}
	u.ID = uuid.New()
	return u
}
