package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/middleware"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/services/documents"
	"github.com/chantierdirect/backend/internal/services/marketplace"
	"github.com/chantierdirect/backend/internal/verification"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockDocuments struct{ mock.Mock }

func (m *MockDocuments) Upload(ctx context.Context, user *models.User, docType models.DocumentType, fileName string, data io.Reader) (*models.DocumentSubmission, error) {
	body, _ := io.ReadAll(data)
	args := m.Called(ctx, user, docType, fileName, string(body))
	s, _ := args.Get(0).(*models.DocumentSubmission)
	return s, args.Error(1)
}

func (m *MockDocuments) Approve(ctx context.Context, id, adminID uuid.UUID, comment string) (*models.DocumentSubmission, error) {
	args := m.Called(ctx, id, adminID, comment)
	s, _ := args.Get(0).(*models.DocumentSubmission)
	return s, args.Error(1)
}

func (m *MockDocuments) Reject(ctx context.Context, id, adminID uuid.UUID, reason, comment string) (*models.DocumentSubmission, error) {
	args := m.Called(ctx, id, adminID, reason, comment)
	s, _ := args.Get(0).(*models.DocumentSubmission)
	return s, args.Error(1)
}

func (m *MockDocuments) Overview(ctx context.Context, user *models.User) (*documents.Overview, error) {
	args := m.Called(ctx, user)
	o, _ := args.Get(0).(*documents.Overview)
	return o, args.Error(1)
}

func (m *MockDocuments) Pending(ctx context.Context, page repository.Page) ([]models.DocumentSubmission, int64, error) {
	args := m.Called(ctx, page)
	s, _ := args.Get(0).([]models.DocumentSubmission)
	return s, args.Get(1).(int64), args.Error(2)
}

func (m *MockDocuments) Get(ctx context.Context, id uuid.UUID) (*documents.Detail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*documents.Detail)
	return d, args.Error(1)
}

func (m *MockDocuments) Open(ctx context.Context, id uuid.UUID, requester *models.User) (*models.DocumentSubmission, io.ReadCloser, error) {
	args := m.Called(ctx, id, requester)
	s, _ := args.Get(0).(*models.DocumentSubmission)
	rc, _ := args.Get(1).(io.ReadCloser)
	return s, rc, args.Error(2)
}

type MockMarketplace struct{ mock.Mock }

func (m *MockMarketplace) CreateProject(ctx context.Context, owner *models.User, in marketplace.ProjectInput) (*models.Project, error) {
	args := m.Called(ctx, owner, in)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *MockMarketplace) ListOpenProjects(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, int64, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).([]models.Project)
	return p, args.Get(1).(int64), args.Error(2)
}

func (m *MockMarketplace) ListOwnProjects(ctx context.Context, owner *models.User, page repository.Page) ([]models.Project, int64, error) {
	args := m.Called(ctx, owner, page)
	p, _ := args.Get(0).([]models.Project)
	return p, args.Get(1).(int64), args.Error(2)
}

func (m *MockMarketplace) GetProject(ctx context.Context, ref string) (*models.Project, error) {
	args := m.Called(ctx, ref)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *MockMarketplace) CloseProject(ctx context.Context, actor *models.User, projectID uuid.UUID) error {
	return m.Called(ctx, actor, projectID).Error(0)
}

func (m *MockMarketplace) SubmitOffer(ctx context.Context, bidder *models.User, projectID uuid.UUID, in marketplace.OfferInput) (*models.Offer, error) {
	args := m.Called(ctx, bidder, projectID, in)
	o, _ := args.Get(0).(*models.Offer)
	return o, args.Error(1)
}

func (m *MockMarketplace) ListOffers(ctx context.Context, viewer *models.User, projectID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, viewer, projectID)
	o, _ := args.Get(0).([]models.Offer)
	return o, args.Error(1)
}

func (m *MockMarketplace) MyOffers(ctx context.Context, bidder *models.User) ([]models.Offer, error) {
	args := m.Called(ctx, bidder)
	o, _ := args.Get(0).([]models.Offer)
	return o, args.Error(1)
}

func (m *MockMarketplace) AcceptOffer(ctx context.Context, owner *models.User, offerID uuid.UUID) error {
	return m.Called(ctx, owner, offerID).Error(0)
}

func (m *MockMarketplace) DeclineOffer(ctx context.Context, owner *models.User, offerID uuid.UUID) error {
	return m.Called(ctx, owner, offerID).Error(0)
}

func (m *MockMarketplace) WithdrawOffer(ctx context.Context, bidder *models.User, offerID uuid.UUID) error {
	return m.Called(ctx, bidder, offerID).Error(0)
}

func (m *MockMarketplace) Directory(ctx context.Context, filter repository.DirectoryFilter) (*marketplace.DirectoryPage, error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*marketplace.DirectoryPage)
	return p, args.Error(1)
}

func (m *MockMarketplace) Profile(ctx context.Context, viewer *models.User, id uuid.UUID) (*marketplace.ProfileView, error) {
	args := m.Called(ctx, viewer, id)
	p, _ := args.Get(0).(*marketplace.ProfileView)
	return p, args.Error(1)
}

func (m *MockMarketplace) Contact(ctx context.Context, from *models.User, in marketplace.ContactInput) (*models.ContactRequest, error) {
	args := m.Called(ctx, from, in)
	r, _ := args.Get(0).(*models.ContactRequest)
	return r, args.Error(1)
}

func (m *MockMarketplace) Inbox(ctx context.Context, user *models.User) ([]models.ContactRequest, error) {
	args := m.Called(ctx, user)
	r, _ := args.Get(0).([]models.ContactRequest)
	return r, args.Error(1)
}

func (m *MockMarketplace) MarkRead(ctx context.Context, user *models.User, id uuid.UUID) error {
	return m.Called(ctx, user, id).Error(0)
}

func (m *MockMarketplace) SubmitContactForm(ctx context.Context, msg *models.ContactMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockMarketplace) ContactMessages(ctx context.Context, page repository.Page) ([]models.ContactMessage, int64, error) {
	args := m.Called(ctx, page)
	msgs, _ := args.Get(0).([]models.ContactMessage)
	return msgs, args.Get(1).(int64), args.Error(2)
}

type MockAccounts struct{ mock.Mock }

func (m *MockAccounts) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockAccounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockAccounts) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type fixedEvaluator struct {
	result verification.Result
}

func (f fixedEvaluator) Evaluate(context.Context, uuid.UUID, models.Role) verification.Result {
	return f.result
}

func testUser(role models.Role) *models.User {
	u := &models.User{Email: "bureau@charpente-leroy.fr", Role: role, CompanyName: "Charpente Leroy", IsActive: true}
	u.ID = uuid.New()
	return u
}

// asUser injects the account the way Authenticate does
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUser, user)
			c.Set(middleware.ContextUserID, user.ID)
			c.Set(middleware.ContextIsAdmin, user.IsAdmin())
		}
		c.Next()
	}
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
