package access

import "fmt"

// Role is the coarse-grained access tier of a subject.
type Role string

const (
	RoleClient     Role = "client"
	RoleAdvisor    Role = "advisor"
	RoleCompliance Role = "compliance"
	RoleAdmin      Role = "admin"
)

// Resource types known to the access control engine.
const (
	ResourceDocument         = "document"
	ResourceAuditLog         = "audit_log"
	ResourceComplianceReport = "compliance_report"
	ResourcePermissionGrant  = "permission_grant"
	ResourceSubject          = "subject"
)

// Actions recorded in the audit trail.
const (
	ActionUpload   = "upload"
	ActionDownload = "download"
	ActionDelete   = "delete"
	ActionRead     = "read"
	ActionGrant    = "grant"
	ActionRevoke   = "revoke"
	ActionRegister = "register"
)

// wildcard matches any resource type or action in a capability set.
const wildcard = "*"

// roleLevels orders the roles for coarse comparisons. The ordering alone is
// not sufficient for authorization decisions; see roleCapabilities.
var roleLevels = map[Role]int{
	RoleClient:     1,
	RoleAdvisor:    2,
	RoleCompliance: 3,
	RoleAdmin:      4,
}

// roleCapabilities maps each role to the resource types and actions it may
// exercise without an explicit permission. Carve-outs such as the compliance
// role's lateral access to audit resources are data here, not special cases
// in the decision code. Absence of an entry means deny.
var roleCapabilities = map[Role]map[string][]string{
	RoleAdmin: {
		wildcard: {wildcard},
	},
	RoleCompliance: {
		ResourceAuditLog:         {ActionRead},
		ResourceComplianceReport: {ActionRead},
	},
	// Advisor and Client hold no general capabilities; they act only on
	// resources they own or hold an explicit permission for.
	RoleAdvisor: {},
	RoleClient:  {},
}

// Level returns the numeric access level of the role, 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Allows reports whether the role's capability set covers the given
// resource type and action.
func (r Role) Allows(resourceType, action string) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}

	for _, rt := range []string{resourceType, wildcard} {
		actions, ok := caps[rt]
		if !ok {
			continue
		}
		for _, a := range actions {
			if a == action || a == wildcard {
				return true
			}
		}
	}

	return false
}

// ParseRole converts a stored role string into a Role, failing on unknown
// input rather than defaulting to any tier.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return role, nil
}
