package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/utils"
	"github.com/chantierdirect/backend/internal/verification"
)

var siretPattern = regexp.MustCompile(`^[0-9]{14}$`)

// AccountStore persists company accounts
type AccountStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// TokenIssuer issues access tokens
type TokenIssuer interface {
	Generate(user *models.User) (utils.Token, error)
}

// Evaluator computes the verification result of a company
type Evaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, role models.Role) verification.Result
}

// AuthHandler handles registration, login and the current account
type AuthHandler struct {
	users  AccountStore
	tokens TokenIssuer
	engine Evaluator
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users AccountStore, tokens TokenIssuer, engine Evaluator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, engine: engine, logger: logger}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"required"`
	Role        models.Role `json:"role" binding:"required"`
	FirstName   string      `json:"first_name" binding:"required"`
	LastName    string      `json:"last_name" binding:"required"`
	CompanyName string      `json:"company_name" binding:"required"`
	Siret       string      `json:"siret"`
	Trade       string      `json:"trade"`
	City        string      `json:"city"`
	Department  string      `json:"department"`
	PhoneNumber string      `json:"phone_number"`
	Description string      `json:"description"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a donneur d'ordre or sous-traitant account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != models.RoleDonneurOrdre && req.Role != models.RoleSousTraitant {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be donneur_ordre or sous_traitant"})
		return
	}
	siret := strings.ReplaceAll(req.Siret, " ", "")
	if siret != "" && !siretPattern.MatchString(siret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "siret must contain 14 digits"})
		return
	}
	if err := utils.ValidatePassword(req.Password, req.Email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CompanyName:  req.CompanyName,
		Siret:        siret,
		Trade:        req.Trade,
		City:         req.City,
		Department:   req.Department,
		Description:  req.Description,
		IsActive:     true,
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = &req.PhoneNumber
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("account registered", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login exchanges credentials for an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, h.logger, err)
		return
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account disabled"})
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := h.users.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Me returns the authenticated account with its verification status
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	result := h.engine.Evaluate(c.Request.Context(), user.ID, user.Role)
	c.JSON(http.StatusOK, gin.H{
		"user":                user,
		"verification_status": result.Status,
		"access":              verification.AccessFor(result.Status),
	})
}
