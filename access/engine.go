package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/M051719/npivault/ccc/logging"
)

// AccessRequest describes one access decision to be made and audited.
type AccessRequest struct {
	SubjectID    string
	ResourceType string
	ResourceID   string
	Action       string
	Purpose      string
	Request      RequestContext
}

type Engine interface {
	// CheckAccess decides whether the subject may perform the action on the
	// resource. Every invocation writes exactly one audit entry, success or
	// failure. Any internal error resolves to deny.
	CheckAccess(ctx context.Context, req AccessRequest) bool

	// RecordDecision appends an audit entry for a decision made outside the
	// permission logic, such as an attempt against an unavailable document.
	// The reason names the policy ground; these are never violations.
	RecordDecision(ctx context.Context, req AccessRequest, granted bool, reason string) error

	// GrantTemporaryAccess creates a time-limited permission and audits the
	// grant itself with the granter as actor.
	GrantTemporaryAccess(ctx context.Context, subjectID, resourceType, resourceID string, duration time.Duration, grantedBy, reason string, rctx RequestContext) (*AccessPermission, error)

	// RevokePermission deactivates an explicit permission and audits the revocation
	RevokePermission(ctx context.Context, permissionID, revokedBy, reason string, rctx RequestContext) error

	// SubjectAuditTrail returns the most recent audit entries for a subject
	SubjectAuditTrail(ctx context.Context, subjectID string, limit int) ([]*AuditLogEntry, error)

	// GenerateComplianceReport aggregates the audit trail over a window
	GenerateComplianceReport(ctx context.Context, start, end time.Time) (*ComplianceReport, error)
}

type engine struct {
	logger      logging.Logger
	subjects    SubjectRepository
	permissions PermissionRepository
	audit       AuditRepository
	now         func() time.Time
}

func NewEngine(logger logging.Logger, subjects SubjectRepository, permissions PermissionRepository, audit AuditRepository) *engine {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &engine{
		logger:      logger,
		subjects:    subjects,
		permissions: permissions,
		audit:       audit,
		now:         time.Now,
	}
}

func (e *engine) CheckAccess(ctx context.Context, req AccessRequest) bool {
	// Resolve the subject and its role. Lookup failures are audited as
	// denials with the error captured, never swallowed.
	subject, err := e.subjects.GetByID(ctx, req.SubjectID)
	if err != nil {
		e.logger.Error("Subject lookup failed during access check", "error", err, "subject_id", req.SubjectID)
		return e.deny(ctx, req, "", fmt.Sprintf("subject lookup failed: %v", err))
	}
	if subject == nil {
		return e.deny(ctx, req, "unknown subject", "")
	}

	// An explicit, active, non-expired permission overrides the role rules.
	permission, err := e.permissions.FindActive(ctx, req.SubjectID, req.ResourceType, req.ResourceID, e.now())
	if err != nil {
		e.logger.Error("Permission lookup failed during access check", "error", err, "subject_id", req.SubjectID)
		return e.deny(ctx, req, "", fmt.Sprintf("permission lookup failed: %v", err))
	}
	if permission != nil {
		return e.grant(ctx, req, "explicit permission")
	}

	// Fall back to the role's capability set. Absence of a capability is a
	// denial; there are no implicit grants.
	if subject.Role.Allows(req.ResourceType, req.Action) {
		return e.grant(ctx, req, fmt.Sprintf("role capability (%s)", subject.Role))
	}

	return e.deny(ctx, req, "", "")
}

// grant audits a granted decision. If the audit entry cannot be written the
// decision flips to deny: an unrecorded access must not happen.
func (e *engine) grant(ctx context.Context, req AccessRequest, reason string) bool {
	if err := e.writeAudit(ctx, req, true, reason, ""); err != nil {
		e.logger.Error("Failed to audit granted access, denying", "error", err, "subject_id", req.SubjectID)
		return false
	}
	return true
}

// deny audits a denied decision. Reason names the policy ground for the
// denial; detail carries error text only when a failure forced the denial.
// Only entries with a non-empty detail count as compliance violations.
func (e *engine) deny(ctx context.Context, req AccessRequest, reason, detail string) bool {
	if err := e.writeAudit(ctx, req, false, reason, detail); err != nil {
		e.logger.Error("Failed to audit denied access", "error", err, "subject_id", req.SubjectID)
	}
	return false
}

func (e *engine) RecordDecision(ctx context.Context, req AccessRequest, granted bool, reason string) error {
	return e.writeAudit(ctx, req, granted, reason, "")
}

func (e *engine) writeAudit(ctx context.Context, req AccessRequest, granted bool, reason, detail string) error {
	entry := &AuditLogEntry{
		ID:           uuid.NewString(),
		SubjectID:    req.SubjectID,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Action:       req.Action,
		Purpose:      req.Purpose,
		Granted:      granted,
		Timestamp:    e.now().UTC(),
		IPAddress:    req.Request.IPAddress,
		UserAgent:    req.Request.UserAgent,
		Reason:       reason,
		Detail:       detail,
	}

	return e.audit.Add(ctx, entry)
}

func (e *engine) GrantTemporaryAccess(ctx context.Context, subjectID, resourceType, resourceID string, duration time.Duration, grantedBy, reason string, rctx RequestContext) (*AccessPermission, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("grant duration must be positive")
	}
	if subjectID == "" || resourceType == "" || resourceID == "" {
		return nil, fmt.Errorf("subject, resource type and resource ID are required")
	}

	now := e.now().UTC()
	expiresAt := now.Add(duration)

	permission := &AccessPermission{
		ID:           uuid.NewString(),
		SubjectID:    subjectID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		GrantedBy:    grantedBy,
		Reason:       reason,
		GrantedAt:    now,
		ExpiresAt:    &expiresAt,
		Active:       true,
	}

	if err := e.permissions.Add(ctx, permission); err != nil {
		e.logger.Error("Failed to persist permission", "error", err, "subject_id", subjectID)
		return nil, fmt.Errorf("failed to grant access: %w", err)
	}

	// The grant itself is an auditable action performed by the granter.
	grantReq := AccessRequest{
		SubjectID:    grantedBy,
		ResourceType: ResourcePermissionGrant,
		ResourceID:   permission.ID,
		Action:       ActionGrant,
		Purpose:      reason,
		Request:      rctx,
	}
	grantReason := fmt.Sprintf("granted %s access to %s/%s until %s", subjectID, resourceType, resourceID, expiresAt.Format(time.RFC3339))
	if err := e.writeAudit(ctx, grantReq, true, grantReason, ""); err != nil {
		e.logger.Error("Failed to audit permission grant", "error", err, "permission_id", permission.ID)
		return nil, fmt.Errorf("failed to audit grant: %w", err)
	}

	e.logger.Info("Granted temporary access", "permission_id", permission.ID, "subject_id", subjectID, "resource_type", resourceType, "expires_at", expiresAt)
	return permission, nil
}

func (e *engine) RevokePermission(ctx context.Context, permissionID, revokedBy, reason string, rctx RequestContext) error {
	permission, err := e.permissions.GetByID(ctx, permissionID)
	if err != nil {
		e.logger.Error("Failed to look up permission for revocation", "error", err, "permission_id", permissionID)
		return fmt.Errorf("failed to revoke permission: %w", err)
	}
	if permission == nil {
		return fmt.Errorf("permission not found: %s", permissionID)
	}

	if err := e.permissions.Deactivate(ctx, permissionID); err != nil {
		e.logger.Error("Failed to deactivate permission", "error", err, "permission_id", permissionID)
		return fmt.Errorf("failed to revoke permission: %w", err)
	}

	revokeReq := AccessRequest{
		SubjectID:    revokedBy,
		ResourceType: ResourcePermissionGrant,
		ResourceID:   permissionID,
		Action:       ActionRevoke,
		Purpose:      reason,
		Request:      rctx,
	}
	revokeReason := fmt.Sprintf("revoked %s access to %s/%s", permission.SubjectID, permission.ResourceType, permission.ResourceID)
	if err := e.writeAudit(ctx, revokeReq, true, revokeReason, ""); err != nil {
		e.logger.Error("Failed to audit permission revocation", "error", err, "permission_id", permissionID)
		return fmt.Errorf("failed to audit revocation: %w", err)
	}

	e.logger.Info("Revoked permission", "permission_id", permissionID, "revoked_by", revokedBy)
	return nil
}

func (e *engine) SubjectAuditTrail(ctx context.Context, subjectID string, limit int) ([]*AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	entries, err := e.audit.QueryBySubject(ctx, subjectID, limit)
	if err != nil {
		e.logger.Error("Failed to query audit trail", "error", err, "subject_id", subjectID)
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}

	return entries, nil
}
