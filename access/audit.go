package access

import "time"

// RequestContext carries the ambient request metadata recorded with every
// audit entry. It is passed explicitly into every engine call rather than
// read from globals.
type RequestContext struct {
	IPAddress string
	UserAgent string
}

// AuditLogEntry is one record in the append-only compliance audit trail.
// Entries are written for every access decision, granted or denied, and for
// every document mutation. They are never updated or deleted.
type AuditLogEntry struct {
	ID           string    // Unique identifier for the entry
	SubjectID    string    // Identity the decision was made about
	ResourceType string    // Resource type the decision concerned
	ResourceID   string    // Identifier of the specific resource
	Action       string    // Action that was attempted
	Purpose      string    // Caller-declared purpose of the access
	Granted      bool      // Outcome of the decision
	Timestamp    time.Time // When the decision was made
	IPAddress    string    // Origin metadata from the request context
	UserAgent    string    // Origin metadata from the request context
	Reason       string    // Policy explanation for the outcome, e.g. "explicit permission"
	Detail       string    // Error text when a failure forced the denial; empty otherwise
}
