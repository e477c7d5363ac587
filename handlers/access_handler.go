package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/M051719/npivault/access"
	"github.com/M051719/npivault/ccc/logging"
	"github.com/M051719/npivault/middleware"
)

// AccessHandler handles permission grants and audit trail queries
type AccessHandler struct {
	logger   logging.Logger
	engine   access.Engine
	subjects access.SubjectService
}

// NewAccessHandler creates a new access handler
func NewAccessHandler(logger logging.Logger, engine access.Engine, subjects access.SubjectService) *AccessHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &AccessHandler{
		logger:   logger,
		engine:   engine,
		subjects: subjects,
	}
}

// GrantRequest represents the expected JSON body for a temporary grant
type GrantRequest struct {
	SubjectID     string `json:"subject_id" binding:"required"`
	ResourceType  string `json:"resource_type" binding:"required"`
	ResourceID    string `json:"resource_id" binding:"required"`
	DurationHours int    `json:"duration_hours" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
}

// Grant handles POST /api/access/grants
func (h *AccessHandler) Grant(c *gin.Context) {
	granterID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid grant request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if req.DurationHours <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration_hours must be positive"})
		return
	}

	rctx := middleware.RequestContext(c)

	// Only subjects whose role covers permission grants may grant access.
	allowed := h.engine.CheckAccess(c.Request.Context(), access.AccessRequest{
		SubjectID:    granterID,
		ResourceType: access.ResourcePermissionGrant,
		ResourceID:   req.ResourceID,
		Action:       access.ActionGrant,
		Purpose:      req.Reason,
		Request:      rctx,
	})
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	duration := time.Duration(req.DurationHours) * time.Hour

	permission, err := h.engine.GrantTemporaryAccess(c.Request.Context(),
		req.SubjectID, req.ResourceType, req.ResourceID, duration, granterID, req.Reason, rctx)
	if err != nil {
		h.logger.Error("Failed to grant access", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         permission.ID,
		"expires_at": permission.ExpiresAt.Format(time.RFC3339),
	})
}

// RevokeGrant handles DELETE /api/access/grants/:id
func (h *AccessHandler) RevokeGrant(c *gin.Context) {
	revokerID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	permissionID := c.Param("id")
	reason := c.Query("reason")
	rctx := middleware.RequestContext(c)

	allowed := h.engine.CheckAccess(c.Request.Context(), access.AccessRequest{
		SubjectID:    revokerID,
		ResourceType: access.ResourcePermissionGrant,
		ResourceID:   permissionID,
		Action:       access.ActionRevoke,
		Purpose:      reason,
		Request:      rctx,
	})
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if err := h.engine.RevokePermission(c.Request.Context(), permissionID, revokerID, reason, rctx); err != nil {
		h.logger.Error("Failed to revoke permission", "error", err, "permission_id", permissionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

// AuditTrail handles GET /api/access/audit/:subjectId
func (h *AccessHandler) AuditTrail(c *gin.Context) {
	callerID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	subjectID := c.Param("subjectId")

	allowed := h.engine.CheckAccess(c.Request.Context(), access.AccessRequest{
		SubjectID:    callerID,
		ResourceType: access.ResourceAuditLog,
		ResourceID:   subjectID,
		Action:       access.ActionRead,
		Purpose:      "audit trail review",
		Request:      middleware.RequestContext(c),
	})
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	entries, err := h.engine.SubjectAuditTrail(c.Request.Context(), subjectID, 100)
	if err != nil {
		h.logger.Error("Failed to query audit trail", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	type entryResponse struct {
		SubjectID    string `json:"subject_id"`
		ResourceType string `json:"resource_type"`
		ResourceID   string `json:"resource_id"`
		Action       string `json:"action"`
		Purpose      string `json:"purpose"`
		Granted      bool   `json:"granted"`
		Timestamp    string `json:"timestamp"`
		Reason       string `json:"reason,omitempty"`
		Detail       string `json:"detail,omitempty"`
	}

	response := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, entryResponse{
			SubjectID:    entry.SubjectID,
			ResourceType: entry.ResourceType,
			ResourceID:   entry.ResourceID,
			Action:       entry.Action,
			Purpose:      entry.Purpose,
			Granted:      entry.Granted,
			Timestamp:    entry.Timestamp.Format(time.RFC3339),
			Reason:       entry.Reason,
			Detail:       entry.Detail,
		})
	}

	c.JSON(http.StatusOK, gin.H{"entries": response})
}

// RegisterSubjectRequest represents the expected JSON body for registration
type RegisterSubjectRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
	Role string `json:"role" binding:"required"`
}

// RegisterSubject handles POST /api/subjects
func (h *AccessHandler) RegisterSubject(c *gin.Context) {
	callerID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req RegisterSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid subject registration request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	role, err := access.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed := h.engine.CheckAccess(c.Request.Context(), access.AccessRequest{
		SubjectID:    callerID,
		ResourceType: access.ResourceSubject,
		ResourceID:   req.ID,
		Action:       access.ActionRegister,
		Purpose:      "subject registration",
		Request:      middleware.RequestContext(c),
	})
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	subject, err := h.subjects.RegisterSubject(c.Request.Context(), req.ID, req.Name, role)
	if err != nil {
		if access.IsSubjectAlreadyExistsError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Subject already exists"})
			return
		}
		h.logger.Error("Failed to register subject", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": subject.ID, "role": string(subject.Role)})
}
