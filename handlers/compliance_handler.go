package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/M051719/npivault/access"
	"github.com/M051719/npivault/ccc/logging"
	"github.com/M051719/npivault/encryption"
	"github.com/M051719/npivault/middleware"
)

// ComplianceHandler serves the compliance status page and audit reports
type ComplianceHandler struct {
	logger logging.Logger
	engine encryption.Engine
	acl    access.Engine
}

// NewComplianceHandler creates a new compliance handler
func NewComplianceHandler(logger logging.Logger, engine encryption.Engine, acl access.Engine) *ComplianceHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &ComplianceHandler{
		logger: logger,
		engine: engine,
		acl:    acl,
	}
}

// Status handles GET /api/compliance/status. Read-only, no side effects;
// it reports the engine configuration, not any document data.
func (h *ComplianceHandler) Status(c *gin.Context) {
	result := h.engine.ValidateCompliance()

	type checkResponse struct {
		Name   string `json:"name"`
		Passed bool   `json:"passed"`
		Detail string `json:"detail"`
	}

	checks := make([]checkResponse, 0, len(result.Checks))
	for _, check := range result.Checks {
		checks = append(checks, checkResponse{Name: check.Name, Passed: check.Passed, Detail: check.Detail})
	}

	c.JSON(http.StatusOK, gin.H{
		"compliant":       result.Compliant,
		"checks":          checks,
		"errors":          result.Errors,
		"algorithm":       encryption.Algorithm,
		"key_length_bits": encryption.KeyLength * 8,
		"tag_length_bits": encryption.TagLength * 8,
	})
}

// Report handles GET /api/compliance/report?start=&end=
func (h *ComplianceHandler) Report(c *gin.Context) {
	callerID, ok := middleware.SubjectID(c)
	if !ok {
		h.logger.Error("Subject ID not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an RFC3339 timestamp"})
		return
	}

	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be an RFC3339 timestamp"})
		return
	}

	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	period := start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339)
	allowed := h.acl.CheckAccess(c.Request.Context(), access.AccessRequest{
		SubjectID:    callerID,
		ResourceType: access.ResourceComplianceReport,
		ResourceID:   period,
		Action:       access.ActionRead,
		Purpose:      "compliance reporting",
		Request:      middleware.RequestContext(c),
	})
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	report, err := h.acl.GenerateComplianceReport(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("Failed to generate compliance report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"period_start":     report.PeriodStart.Format(time.RFC3339),
		"period_end":       report.PeriodEnd.Format(time.RFC3339),
		"total_accesses":   report.TotalAccesses,
		"denied_accesses":  report.DeniedAccesses,
		"violations":       report.Violations,
		"compliance_score": report.ComplianceScore,
		"accesses_by_type": report.AccessesByType,
		"unique_subjects":  report.UniqueSubjects,
		"recommendations":  report.Recommendations,
	})
}
