package keys

import "time"

// SymmetricKey is a 256-bit secret owned by the key manager. The raw key
// bytes are never logged and leave the process only via Manager.ExportKey.
type SymmetricKey struct {
	ID        string     // Unique identifier, referenced by EncryptedPayload.KeyID
	Key       []byte     // Raw 256-bit key material
	Active    bool       // Exactly one key is active at a time
	CreatedAt time.Time  // Timestamp when the key was generated
	RetiredAt *time.Time // Set when the key is rotated out; retired keys are kept forever
}
