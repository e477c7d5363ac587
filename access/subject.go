package access

import "time"

// Subject is an identity known to the access control engine. Identity
// proofing happens in the external auth provider; this row only binds the
// externally asserted ID to a role.
type Subject struct {
	ID        string    // Identity asserted by the external auth provider
	Name      string    // Display name
	Role      Role      // Access tier
	CreatedAt time.Time // Timestamp when the subject was registered
}
