package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/utils"
	"github.com/chantierdirect/backend/internal/verification"
)

func authRouter(accounts *MockAccounts, user *models.User, status verification.Status) *gin.Engine {
	h := NewAuthHandler(accounts, utils.NewTokenManager("secret", time.Hour), fixedEvaluator{result: verification.Result{Status: status}}, nopLogger())
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", asUser(user), h.Me)
	return r
}

func registration() map[string]interface{} {
	return map[string]interface{}{
		"email":        "contact@elec-bernard.fr",
		"password":     "Tableau2024Elec",
		"role":         "sous_traitant",
		"first_name":   "Luc",
		"last_name":    "Bernard",
		"company_name": "Elec Bernard",
		"siret":        "732 829 320 00074",
		"trade":        "electricite",
		"department":   "69",
	}
}

func TestRegister(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleSousTraitant && u.Siret == "73282932000074" && u.PasswordHash != "Tableau2024Elec"
	})).Return(nil)

	w := doJSON(t, authRouter(accounts, nil, ""), http.MethodPost, "/auth/register", registration())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	token := body["token"].(map[string]interface{})
	assert.NotEmpty(t, token["access_token"])
	user := body["user"].(map[string]interface{})
	assert.NotContains(t, user, "password_hash")
	accounts.AssertExpectations(t)
}

func TestRegisterValidation(t *testing.T) {
	cases := map[string]func(map[string]interface{}){
		"admin role":    func(b map[string]interface{}) { b["role"] = "admin" },
		"bad siret":     func(b map[string]interface{}) { b["siret"] = "1234" },
		"weak password": func(b map[string]interface{}) { b["password"] = "court" },
		"missing email": func(b map[string]interface{}) { delete(b, "email") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			accounts := new(MockAccounts)
			body := registration()
			mutate(body)
			w := doJSON(t, authRouter(accounts, nil, ""), http.MethodPost, "/auth/register", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("Create", mock.Anything, mock.Anything).Return(repository.ErrConflict)

	w := doJSON(t, authRouter(accounts, nil, ""), http.MethodPost, "/auth/register", registration())
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Tableau2024Elec"), bcrypt.MinCost)
	require.NoError(t, err)
	user := testUser(models.RoleSousTraitant)
	user.PasswordHash = string(hash)

	accounts := new(MockAccounts)
	accounts.On("FindByEmail", mock.Anything, "contact@elec-bernard.fr").Return(user, nil)
	accounts.On("FindByEmail", mock.Anything, "inconnu@exemple.fr").Return(nil, repository.ErrNotFound)
	accounts.On("UpdateLastLogin", mock.Anything, user.ID).Return(nil)
	r := authRouter(accounts, nil, "")

	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"email": "contact@elec-bernard.fr", "password": "Tableau2024Elec"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"email": "contact@elec-bernard.fr", "password": "mauvais"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"email": "inconnu@exemple.fr", "password": "mauvais"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	accounts.AssertNumberOfCalls(t, "UpdateLastLogin", 1)
}

func TestMeIncludesVerificationStatus(t *testing.T) {
	user := testUser(models.RoleSousTraitant)
	w := doJSON(t, authRouter(new(MockAccounts), user, verification.StatusPending), http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "PENDING", body["verification_status"])
	assert.Equal(t, "read_only", body["access"])
}
