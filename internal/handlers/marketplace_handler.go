package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/middleware"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/services/marketplace"
)

// MarketplaceService is the marketplace used by the handlers
type MarketplaceService interface {
	CreateProject(ctx context.Context, owner *models.User, in marketplace.ProjectInput) (*models.Project, error)
	ListOpenProjects(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, int64, error)
	ListOwnProjects(ctx context.Context, owner *models.User, page repository.Page) ([]models.Project, int64, error)
	GetProject(ctx context.Context, ref string) (*models.Project, error)
	CloseProject(ctx context.Context, actor *models.User, projectID uuid.UUID) error

	SubmitOffer(ctx context.Context, bidder *models.User, projectID uuid.UUID, in marketplace.OfferInput) (*models.Offer, error)
	ListOffers(ctx context.Context, viewer *models.User, projectID uuid.UUID) ([]models.Offer, error)
	MyOffers(ctx context.Context, bidder *models.User) ([]models.Offer, error)
	AcceptOffer(ctx context.Context, owner *models.User, offerID uuid.UUID) error
	DeclineOffer(ctx context.Context, owner *models.User, offerID uuid.UUID) error
	WithdrawOffer(ctx context.Context, bidder *models.User, offerID uuid.UUID) error

	Directory(ctx context.Context, filter repository.DirectoryFilter) (*marketplace.DirectoryPage, error)
	Profile(ctx context.Context, viewer *models.User, id uuid.UUID) (*marketplace.ProfileView, error)

	Contact(ctx context.Context, from *models.User, in marketplace.ContactInput) (*models.ContactRequest, error)
	Inbox(ctx context.Context, user *models.User) ([]models.ContactRequest, error)
	MarkRead(ctx context.Context, user *models.User, id uuid.UUID) error
	SubmitContactForm(ctx context.Context, msg *models.ContactMessage) error
	ContactMessages(ctx context.Context, page repository.Page) ([]models.ContactMessage, int64, error)
}

// MarketplaceHandler serves projects, offers, the directory and contacts
type MarketplaceHandler struct {
	market MarketplaceService
	logger *zap.Logger
}

// NewMarketplaceHandler creates a new marketplace handler
func NewMarketplaceHandler(market MarketplaceService, logger *zap.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{market: market, logger: logger}
}

// ProjectRequest represents the request body for a new project
type ProjectRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Trade       string     `json:"trade"`
	City        string     `json:"city"`
	Department  string     `json:"department"`
	BudgetCents *int64     `json:"budget_cents"`
	Deadline    *time.Time `json:"deadline"`
}

// OfferRequest represents the request body for a bid
type OfferRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	DelayDays   int    `json:"delay_days"`
	Message     string `json:"message"`
}

// ContactRequest represents the request body for a contact request
type ContactRequest struct {
	ProjectID *uuid.UUID `json:"project_id"`
	Subject   string     `json:"subject" binding:"required"`
	Message   string     `json:"message" binding:"required"`
}

// ContactFormRequest represents the public contact form
type ContactFormRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Body    string `json:"message" binding:"required"`
}

// CreateProject posts a project
func (h *MarketplaceHandler) CreateProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.market.CreateProject(c.Request.Context(), user, marketplace.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Trade:       req.Trade,
		City:        req.City,
		Department:  req.Department,
		BudgetCents: req.BudgetCents,
		Deadline:    req.Deadline,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ListProjects lists open projects with optional trade and department filters
func (h *MarketplaceHandler) ListProjects(c *gin.Context) {
	page := pageQuery(c)
	projects, total, err := h.market.ListOpenProjects(c.Request.Context(), repository.ProjectFilter{
		Trade:      c.Query("trade"),
		Department: c.Query("department"),
		Page:       page,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paginated("projects", projects, total, page))
}

// MyProjects lists the projects posted by the current user
func (h *MarketplaceHandler) MyProjects(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page := pageQuery(c)
	projects, total, err := h.market.ListOwnProjects(c.Request.Context(), user, page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paginated("projects", projects, total, page))
}

// GetProject returns a project by id or slug
func (h *MarketplaceHandler) GetProject(c *gin.Context) {
	project, err := h.market.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// CloseProject closes an open project
func (h *MarketplaceHandler) CloseProject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.market.CloseProject(c.Request.Context(), user, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.ProjectStatusClosed})
}

// SubmitOffer places a bid on a project
func (h *MarketplaceHandler) SubmitOffer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer, err := h.market.SubmitOffer(c.Request.Context(), user, projectID, marketplace.OfferInput{
		AmountCents: req.AmountCents,
		DelayDays:   req.DelayDays,
		Message:     req.Message,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// ListOffers lists the offers on a project for its owner or an admin
func (h *MarketplaceHandler) ListOffers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	offers, err := h.market.ListOffers(c.Request.Context(), user, projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// MyOffers lists the bids of the current subcontractor
func (h *MarketplaceHandler) MyOffers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	offers, err := h.market.MyOffers(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// AcceptOffer awards the project to an offer
func (h *MarketplaceHandler) AcceptOffer(c *gin.Context) {
	h.decide(c, h.market.AcceptOffer, models.OfferStatusAccepted)
}

// DeclineOffer declines an offer
func (h *MarketplaceHandler) DeclineOffer(c *gin.Context) {
	h.decide(c, h.market.DeclineOffer, models.OfferStatusDeclined)
}

// WithdrawOffer withdraws the current subcontractor's bid
func (h *MarketplaceHandler) WithdrawOffer(c *gin.Context) {
	h.decide(c, h.market.WithdrawOffer, models.OfferStatusWithdrawn)
}

func (h *MarketplaceHandler) decide(c *gin.Context, action func(context.Context, *models.User, uuid.UUID) error, result models.OfferStatus) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := action(c.Request.Context(), user, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": result})
}

// Directory lists VERIFIED subcontractors
func (h *MarketplaceHandler) Directory(c *gin.Context) {
	page := pageQuery(c)
	result, err := h.market.Directory(c.Request.Context(), repository.DirectoryFilter{
		Query:      c.Query("q"),
		Trade:      c.Query("trade"),
		Department: c.Query("department"),
		Page:       page,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"companies": result.Companies,
		"page":      result.Page.Number,
		"page_size": result.Page.Size,
		"has_more":  result.HasMore,
	})
}

// Profile returns a company profile. Authentication is optional.
func (h *MarketplaceHandler) Profile(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	viewer, _ := middleware.CurrentUser(c)
	profile, err := h.market.Profile(c.Request.Context(), viewer, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Contact sends a contact request to a subcontractor
func (h *MarketplaceHandler) Contact(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	targetID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.market.Contact(c.Request.Context(), user, marketplace.ContactInput{
		ToUserID:  targetID,
		ProjectID: req.ProjectID,
		Subject:   req.Subject,
		Message:   req.Message,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// Inbox lists the contact requests received by the current user
func (h *MarketplaceHandler) Inbox(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	requests, err := h.market.Inbox(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// MarkRead marks a received contact request as read
func (h *MarketplaceHandler) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.market.MarkRead(c.Request.Context(), user, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitContactForm stores a message from the public contact form
func (h *MarketplaceHandler) SubmitContactForm(c *gin.Context) {
	var req ContactFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg := &models.ContactMessage{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Body:      req.Body,
		IPAddress: c.ClientIP(),
	}
	if err := h.market.SubmitContactForm(c.Request.Context(), msg); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Votre message a bien été envoyé"})
}

// ContactMessages lists contact form messages for admins
func (h *MarketplaceHandler) ContactMessages(c *gin.Context) {
	page := pageQuery(c)
	messages, total, err := h.market.ContactMessages(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paginated("messages", messages, total, page))
}
