// Package routes registers the HTTP API.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chantierdirect/backend/internal/handlers"
	"github.com/chantierdirect/backend/internal/middleware"
	"github.com/chantierdirect/backend/internal/models"
)

// Deps groups what the routes are built from
type Deps struct {
	Auth        *middleware.Auth
	RateLimiter *middleware.RateLimiter
	Verifier    middleware.Evaluator
	Metrics     http.Handler
	Health      *handlers.HealthHandler
	Accounts    *handlers.AuthHandler
	Documents   *handlers.DocumentHandler
	Marketplace *handlers.MarketplaceHandler
	Queue       *handlers.QueueHandler
}

// RegisterRoutes registers every API route on the router
func RegisterRoutes(router *gin.Engine, d Deps) {
	router.GET("/health", d.Health.Health)
	if d.Metrics != nil {
		router.GET("/metrics", gin.WrapH(d.Metrics))
	}

	v1 := router.Group("/api/v1")
	v1.GET("/health", d.Health.Health)

	authenticate := d.Auth.Authenticate()
	gate := middleware.RequireVerified(d.Verifier)

	auth := v1.Group("/auth")
	{
		auth.POST("/register", d.RateLimiter.AuthRateLimiterMiddleware(), d.Accounts.Register)
		auth.POST("/login", d.RateLimiter.AuthRateLimiterMiddleware(), d.Accounts.Login)
		auth.GET("/me", authenticate, d.Accounts.Me)
	}

	// Public surfaces
	v1.POST("/contact", d.RateLimiter.IPRateLimiterMiddleware(), d.Marketplace.SubmitContactForm)
	v1.GET("/directory", d.Marketplace.Directory)
	v1.GET("/companies/:id", d.Auth.Optional(), d.Marketplace.Profile)
	v1.GET("/projects", d.Marketplace.ListProjects)
	v1.GET("/projects/:id", d.Marketplace.GetProject)

	protected := v1.Group("")
	protected.Use(authenticate)
	{
		protected.GET("/verification/status", d.Documents.Status)

		protected.GET("/documents", d.Documents.Overview)
		protected.POST("/documents", d.Documents.Upload)
		protected.GET("/documents/:id/file", d.Documents.Download)

		protected.GET("/contact-requests", d.Marketplace.Inbox)
		protected.POST("/contact-requests/:id/read", d.Marketplace.MarkRead)
	}

	owners := protected.Group("")
	owners.Use(middleware.RequireRole(models.RoleDonneurOrdre))
	{
		owners.POST("/projects", gate, d.Marketplace.CreateProject)
		owners.GET("/me/projects", d.Marketplace.MyProjects)
		owners.POST("/projects/:id/close", d.Marketplace.CloseProject)
		owners.GET("/projects/:id/offers", d.Marketplace.ListOffers)
		owners.POST("/offers/:id/accept", d.Marketplace.AcceptOffer)
		owners.POST("/offers/:id/decline", d.Marketplace.DeclineOffer)
		owners.POST("/companies/:id/contact", d.Marketplace.Contact)
	}

	subcontractors := protected.Group("")
	subcontractors.Use(middleware.RequireRole(models.RoleSousTraitant))
	{
		subcontractors.POST("/projects/:id/offers", gate, d.Marketplace.SubmitOffer)
		subcontractors.GET("/me/offers", d.Marketplace.MyOffers)
		subcontractors.POST("/offers/:id/withdraw", d.Marketplace.WithdrawOffer)
	}

	admin := v1.Group("/admin")
	admin.Use(authenticate, middleware.RequireAdmin())
	{
		admin.GET("/documents", d.Documents.Pending)
		admin.GET("/documents/:id", d.Documents.Get)
		admin.GET("/documents/:id/file", d.Documents.Download)
		admin.POST("/documents/:id/approve", d.Documents.Approve)
		admin.POST("/documents/:id/reject", d.Documents.Reject)
		admin.GET("/messages", d.Marketplace.ContactMessages)
		admin.GET("/projects/:id/offers", d.Marketplace.ListOffers)
		if d.Queue != nil {
			admin.GET("/queue", d.Queue.Stats)
		}
	}
}
