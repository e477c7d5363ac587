package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/M051719/npivault/ccc/logging"
	"github.com/M051719/npivault/documents"
	"github.com/M051719/npivault/encryption"
	"github.com/M051719/npivault/middleware"
)

// maxUploadBytes caps multipart uploads before they are read into memory.
const maxUploadBytes = 50 * 1024 * 1024

// DocumentHandler handles secure document operations
type DocumentHandler struct {
	logger logging.Logger
	vault  documents.Vault
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(logger logging.Logger, vault documents.Vault) *DocumentHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &DocumentHandler{
		logger: logger,
		vault:  vault,
	}
}

// Upload handles POST /api/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.logger.Warn("Invalid upload form", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file form field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	expiresInDays := 0
	if raw := c.PostForm("expires_in_days"); raw != "" {
		expiresInDays, err = strconv.Atoi(raw)
		if err != nil || expiresInDays < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expires_in_days must be a non-negative integer"})
			return
		}
	}

	contentType := fileHeader.Header.Get("Content-Type")

	documentID, err := h.vault.Upload(c.Request.Context(), documents.UploadRequest{
		SubjectID:     subjectID,
		Filename:      fileHeader.Filename,
		ContentType:   contentType,
		Data:          data,
		ExpiresInDays: expiresInDays,
		Request:       middleware.RequestContext(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": documentID})
}

// List handles GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	infos, err := h.vault.ListDocuments(c.Request.Context(), subjectID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	type documentResponse struct {
		ID          string `json:"id"`
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
		Size        int64  `json:"size"`
		UploadedAt  string `json:"uploaded_at"`
		ExpiresAt   string `json:"expires_at,omitempty"`
		AccessCount int64  `json:"access_count"`
		Active      bool   `json:"active"`
	}

	response := make([]documentResponse, 0, len(infos))
	for _, info := range infos {
		item := documentResponse{
			ID:          info.ID,
			Filename:    info.Filename,
			ContentType: info.ContentType,
			Size:        info.Size,
			UploadedAt:  info.UploadedAt.Format(http.TimeFormat),
			AccessCount: info.AccessCount,
			Active:      info.Active,
		}
		if info.ExpiresAt != nil {
			item.ExpiresAt = info.ExpiresAt.Format(http.TimeFormat)
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, gin.H{"documents": response})
}

// Download handles GET /api/documents/:id
func (h *DocumentHandler) Download(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	documentID := c.Param("id")

	result, err := h.vault.Download(c.Request.Context(), subjectID, documentID, middleware.RequestContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// Revoke handles DELETE /api/documents/:id
func (h *DocumentHandler) Revoke(c *gin.Context) {
	subjectID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	documentID := c.Param("id")

	if err := h.vault.Revoke(c.Request.Context(), subjectID, documentID, middleware.RequestContext(c)); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

// writeError maps vault errors to HTTP responses. Integrity and storage
// failures surface as a generic message so no internal detail leaks.
func (h *DocumentHandler) writeError(c *gin.Context, err error) {
	switch {
	case documents.IsAccessDeniedError(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case documents.IsDocumentUnavailableError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case encryption.IsInvalidInputError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case encryption.IsIntegrityFailureError(err):
		h.logger.Error("Integrity failure serving document", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	default:
		h.logger.Error("Document operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
