package access

import "time"

// AccessPermission is an explicit, resource-scoped, possibly time-limited
// grant layered on top of the role capabilities. It lapses when ExpiresAt
// passes or when it is explicitly deactivated.
type AccessPermission struct {
	ID           string     // Unique identifier for the permission
	SubjectID    string     // Identity the permission is granted to
	ResourceType string     // e.g. "document"
	ResourceID   string     // Identifier of the specific resource
	GrantedBy    string     // Identity of the granter
	Reason       string     // Business justification recorded with the grant
	GrantedAt    time.Time  // Timestamp when the grant was created
	ExpiresAt    *time.Time // Optional expiry; nil means no time limit
	Active       bool       // False once deactivated
}

// ExpiredAt reports whether the permission has lapsed as of the given time.
func (p *AccessPermission) ExpiredAt(t time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(t)
}
