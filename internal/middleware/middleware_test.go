package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/utils"
	"github.com/chantierdirect/backend/internal/verification"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type userMap map[uuid.UUID]*models.User

func (m userMap) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type failingUsers struct{}

func (failingUsers) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, errors.New("connection refused")
}

type fixedEvaluator struct {
	result verification.Result
}

func (f fixedEvaluator) Evaluate(context.Context, uuid.UUID, models.Role) verification.Result {
	return f.result
}

func newUser(role models.Role) *models.User {
	u := &models.User{Email: "chef@maconnerie-martin.fr", Role: role, IsActive: true}
	u.ID = uuid.New()
	return u
}

func bearer(t *testing.T, tokens *utils.TokenManager, user *models.User) string {
	t.Helper()
	token, err := tokens.Generate(user)
	require.NoError(t, err)
	return "Bearer " + token.AccessToken
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	active := newUser(models.RoleSousTraitant)
	disabled := newUser(models.RoleSousTraitant)
	disabled.IsActive = false
	ghost := newUser(models.RoleAdmin)

	r := gin.New()
	r.GET("/me", NewAuth(tokens, userMap{active.ID: active, disabled.ID: disabled}, nil).Authenticate(), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": c.GetString(ContextEmail)})
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer not-a-jwt").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", bearer(t, tokens, ghost)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/me", bearer(t, tokens, disabled)).Code)

	w := serve(r, http.MethodGet, "/me", bearer(t, tokens, active))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), active.ID.String())
}

func TestAuthenticateStoreFailure(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	r := gin.New()
	r.GET("/me", NewAuth(tokens, failingUsers{}, nil).Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(r, http.MethodGet, "/me", bearer(t, tokens, newUser(models.RoleAdmin)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRoleChecks(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	admin := newUser(models.RoleAdmin)
	owner := newUser(models.RoleDonneurOrdre)
	auth := NewAuth(tokens, userMap{admin.ID: admin, owner.ID: owner}, nil).Authenticate()

	r := gin.New()
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/admin", auth, RequireAdmin(), ok)
	r.GET("/projects/new", auth, RequireRole(models.RoleDonneurOrdre), ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/admin", bearer(t, tokens, admin)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", bearer(t, tokens, owner)).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/projects/new", bearer(t, tokens, owner)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/projects/new", bearer(t, tokens, admin)).Code)
}

func gatedRouter(result verification.Result) *gin.Engine {
	user := newUser(models.RoleSousTraitant)
	r := gin.New()
	setUser := func(c *gin.Context) { c.Set(ContextUser, user) }
	gate := RequireVerified(fixedEvaluator{result: result})
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/offers", setUser, gate, ok)
	r.POST("/offers", setUser, gate, ok)
	return r
}

func TestRequireVerified(t *testing.T) {
	t.Run("verified passes", func(t *testing.T) {
		r := gatedRouter(verification.Result{Status: verification.StatusVerified})
		assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/offers", "").Code)
	})

	t.Run("pending is read only", func(t *testing.T) {
		r := gatedRouter(verification.Result{Status: verification.StatusPending})
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/offers", "").Code)

		w := serve(r, http.MethodPost, "/offers", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "PENDING", body["verification_status"])
		assert.Equal(t, "read_only", body["access"])
		assert.NotEmpty(t, body["error"])
	})

	t.Run("blocked lists outstanding documents", func(t *testing.T) {
		r := gatedRouter(verification.Result{
			Status: verification.StatusBlocked,
			Items: []verification.Item{
				{Type: models.DocumentType("KBIS"), Status: verification.EffectiveApproved},
				{Type: models.DocumentType("ASSURANCE_DECENNALE"), Status: verification.EffectiveRejected},
				{Type: models.DocumentType("ATTESTATION_VIGILANCE"), Status: verification.EffectiveMissing},
			},
		})
		w := serve(r, http.MethodGet, "/offers", "")
		assert.Equal(t, http.StatusForbidden, w.Code)

		var body struct {
			Status      string   `json:"verification_status"`
			Access      string   `json:"access"`
			Outstanding []string `json:"outstanding"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "BLOCKED", body.Status)
		assert.Equal(t, "upload_required", body.Access)
		assert.Equal(t, []string{"ASSURANCE_DECENNALE", "ATTESTATION_VIGILANCE"}, body.Outstanding)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := gin.New()
		r.GET("/offers", RequireVerified(fixedEvaluator{}), func(c *gin.Context) { c.Status(http.StatusOK) })
		assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/offers", "").Code)
	})
}

type countingEvaluator struct {
	calls  int
	result verification.Result
}

func (e *countingEvaluator) Evaluate(context.Context, uuid.UUID, models.Role) verification.Result {
	e.calls++
	return e.result
}

func TestRequireVerifiedSharesResult(t *testing.T) {
	user := newUser(models.RoleSousTraitant)
	engine := &countingEvaluator{result: verification.Result{Status: verification.StatusVerified}}

	var (
		got      verification.Result
		found    bool
		otherHit bool
	)
	r := gin.New()
	r.POST("/offers", func(c *gin.Context) { c.Set(ContextUser, user) }, RequireVerified(engine), func(c *gin.Context) {
		got, found = verification.ResultFromContext(c.Request.Context(), user.ID)
		_, otherHit = verification.ResultFromContext(c.Request.Context(), uuid.New())
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/offers", "").Code)
	assert.Equal(t, 1, engine.calls)
	require.True(t, found)
	assert.Equal(t, verification.StatusVerified, got.Status)
	assert.False(t, otherHit)
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 60, 2, 2)
	defer rl.Stop()

	r := gin.New()
	r.GET("/contact", rl.IPRateLimiterMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/contact", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/contact", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/contact", "").Code)
}

func TestAuthRateLimiterKeepsBody(t *testing.T) {
	rl := NewRateLimiter(100, 1, 100, 1)
	defer rl.Stop()

	r := gin.New()
	r.POST("/login", rl.AuthRateLimiterMiddleware(), func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		require.NoError(t, c.ShouldBindJSON(&body))
		c.String(http.StatusOK, body.Email)
	})

	post := func(email string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := post("a@exemple.fr")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@exemple.fr", w.Body.String())
	assert.Equal(t, http.StatusTooManyRequests, post("A@exemple.fr").Code)
	assert.Equal(t, http.StatusOK, post("b@exemple.fr").Code)
}

func TestSecureHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/health", SecureHeadersMiddleware(DefaultSecureHeadersConfig(true)), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestOptionalAuth(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	user := newUser(models.RoleDonneurOrdre)

	r := gin.New()
	r.GET("/profile", NewAuth(tokens, userMap{user.ID: user}, nil).Optional(), func(c *gin.Context) {
		if u, ok := CurrentUser(c); ok {
			c.String(http.StatusOK, u.ID.String())
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/profile", "").Body.String())
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/profile", "Bearer garbage").Body.String())
	assert.Equal(t, user.ID.String(), serve(r, http.MethodGet, "/profile", bearer(t, tokens, user)).Body.String())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, http.MethodGet, "/ok", "")
	serve(r, http.MethodGet, "/boom", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(500), entries[1].ContextMap()["status"])
}
