package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/queue"
)

// QueueInspector reports the background job queue sizes
type QueueInspector interface {
	Stats(ctx context.Context) (queue.Stats, error)
}

// QueueHandler exposes the job queue state to admins
type QueueHandler struct {
	queue  QueueInspector
	logger *zap.Logger
}

// NewQueueHandler creates a queue handler
func NewQueueHandler(q QueueInspector, logger *zap.Logger) *QueueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueHandler{queue: q, logger: logger}
}

// Stats returns the waiting, processing, delayed and dead job counts
func (h *QueueHandler) Stats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to read queue stats", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": stats})
}
