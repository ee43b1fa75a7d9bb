package handlers

import (
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chantierdirect/backend/internal/models"
	"github.com/chantierdirect/backend/internal/repository"
	"github.com/chantierdirect/backend/internal/services/documents"
	"github.com/chantierdirect/backend/internal/verification"
)

// DocumentService is the document workflow used by the handlers
type DocumentService interface {
	Upload(ctx context.Context, user *models.User, docType models.DocumentType, fileName string, data io.Reader) (*models.DocumentSubmission, error)
	Approve(ctx context.Context, id, adminID uuid.UUID, comment string) (*models.DocumentSubmission, error)
	Reject(ctx context.Context, id, adminID uuid.UUID, reason, comment string) (*models.DocumentSubmission, error)
	Overview(ctx context.Context, user *models.User) (*documents.Overview, error)
	Pending(ctx context.Context, page repository.Page) ([]models.DocumentSubmission, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*documents.Detail, error)
	Open(ctx context.Context, id uuid.UUID, requester *models.User) (*models.DocumentSubmission, io.ReadCloser, error)
}

// DocumentHandler serves the document upload page and the review back office
type DocumentHandler struct {
	docs          DocumentService
	engine        Evaluator
	maxUploadSize int64
	logger        *zap.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(docs DocumentService, engine Evaluator, maxUploadSize int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, engine: engine, maxUploadSize: maxUploadSize, logger: logger}
}

// ReviewRequest is the body of an approve or reject call
type ReviewRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
}

// Overview returns the upload page model of the current user
func (h *DocumentHandler) Overview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	overview, err := h.docs.Overview(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// Upload receives a multipart file for one document type
func (h *DocumentHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)
	}

	docType := models.DocumentType(c.PostForm("type"))
	if !docType.Known() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown document type"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer file.Close()

	submission, err := h.docs.Upload(c.Request.Context(), user, docType, fileHeader.Filename, file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

// Download streams a stored file to its owner or an admin
func (h *DocumentHandler) Download(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	submission, rc, err := h.docs.Open(c.Request.Context(), id, user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": submission.FileName})
	c.DataFromReader(http.StatusOK, submission.FileSize, submission.MimeType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Status returns the verification result of the current user
func (h *DocumentHandler) Status(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	result := h.engine.Evaluate(c.Request.Context(), user.ID, user.Role)
	outstanding := result.Outstanding()
	if outstanding == nil {
		outstanding = []models.DocumentType{}
	}
	c.JSON(http.StatusOK, gin.H{
		"verification_status": result.Status,
		"access":              verification.AccessFor(result.Status),
		"items":               result.Items,
		"outstanding":         outstanding,
	})
}

// Pending lists the review queue
func (h *DocumentHandler) Pending(c *gin.Context) {
	page := pageQuery(c)
	items, total, err := h.docs.Pending(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paginated("documents", items, total, page))
}

// Get returns a submission with its review history
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.docs.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Approve marks a submission APPROVED
func (h *DocumentHandler) Approve(c *gin.Context) {
	h.review(c, true)
}

// Reject marks a submission REJECTED with a reason
func (h *DocumentHandler) Reject(c *gin.Context) {
	h.review(c, false)
}

func (h *DocumentHandler) review(c *gin.Context, approve bool) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var (
		submission *models.DocumentSubmission
		err        error
	)
	if approve {
		submission, err = h.docs.Approve(c.Request.Context(), id, admin.ID, req.Comment)
	} else {
		submission, err = h.docs.Reject(c.Request.Context(), id, admin.ID, req.Reason, req.Comment)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}
