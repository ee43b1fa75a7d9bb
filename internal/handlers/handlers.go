// Package handlers exposes the HTTP API with gin.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/middleware"
	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/services/documents"
	"github.com/chantierdirect/backend/internal/services/marketplace"
	"github.com/chantierdirect/backend/internal/storage"
)

// respondError maps service errors to HTTP responses. Unknown errors are
// logged and reported as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var notVerified *marketplace.NotVerifiedError
	switch {
	case errors.As(err, &notVerified):
		c.JSON(http.StatusForbidden, gin.H{
			"error":               "Votre entreprise doit être vérifiée pour cette action",
			"verification_status": notVerified.Status,
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, marketplace.ErrForbidden), errors.Is(err, documents.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Operation not allowed"})
	case errors.Is(err, marketplace.ErrInvalidTransition), errors.Is(err, documents.ErrInvalidTransition),
		errors.Is(err, marketplace.ErrInvalidInput), errors.Is(err, documents.ErrReasonRequired),
		errors.Is(err, documents.ErrTypeNotAllowed), errors.Is(err, storage.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser returns the authenticated account or aborts with 401
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return user, ok
}

// uuidParam parses a path parameter or aborts with 400
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads page and page_size query parameters
func pageQuery(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return repository.Page{Number: page, Size: size}.Normalize()
}

func paginated(key string, items interface{}, total int64, page repository.Page) gin.H {
	return gin.H{
		key: items,
		"pagination": gin.H{
			"total":     total,
			"page":      page.Number,
			"page_size": page.Size,
		},
	}
}
