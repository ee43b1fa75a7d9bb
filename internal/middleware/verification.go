package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/verification"
)

// Evaluator computes the verification result of a company
type Evaluator interface {
	Evaluate(ctx context.Context, userID uuid.UUID, role models.Role) verification.Result
}

// RequireVerified gates participation routes on the verification status of
// the authenticated company. PENDING companies keep read-only access,
// BLOCKED companies are told which documents to upload. The result is
// attached to the request context so handlers reuse it.
func RequireVerified(engine Evaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		result := engine.Evaluate(c.Request.Context(), user.ID, user.Role)
		c.Set("verification_status", result.Status)
		c.Request = c.Request.WithContext(verification.WithResult(c.Request.Context(), user.ID, result))

		switch result.Status {
		case verification.StatusVerified:
			c.Next()
		case verification.StatusPending:
			if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":               "Vos documents sont en cours de vérification",
				"verification_status": result.Status,
				"access":              verification.AccessFor(result.Status),
			})
		default:
			outstanding := result.Outstanding()
			if outstanding == nil {
				outstanding = []models.DocumentType{}
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":               "Des documents obligatoires sont manquants ou refusés",
				"verification_status": result.Status,
				"access":              verification.AccessFor(result.Status),
				"outstanding":         outstanding,
			})
		}
	}
}
