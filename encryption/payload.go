package encryption

// Algorithm is the only cipher this engine implements. Payloads declaring
// anything else are rejected before decryption is attempted.
const Algorithm = "aes-256-gcm"

// EncryptedPayload is the sealed form of a plaintext. It is produced only by
// the engine and is immutable once created. Ciphertext and AuthTag must both
// be present to attempt decryption; the tag establishes authenticity, not
// just confidentiality.
type EncryptedPayload struct {
	Ciphertext []byte // encrypted data, without the tag
	IV         []byte // random per-encryption nonce, never reused under the same key
	AuthTag    []byte // GCM authentication tag
	Algorithm  string // must equal the Algorithm constant
	KeyID      string // identifier of the symmetric key that sealed this payload
}

// IndexHash is a salted one-way digest of a sensitive value, usable for
// equality lookups without storing the value itself.
type IndexHash struct {
	Hash []byte
	Salt []byte
}

// ComplianceCheck is the outcome of a single configuration check.
type ComplianceCheck struct {
	Name   string
	Passed bool
	Detail string
}

// ComplianceResult reports whether the engine configuration meets the
// regulatory minimum. It is used for reporting only; enforcement is
// structural since the engine implements a single fixed algorithm.
type ComplianceResult struct {
	Compliant bool
	Checks    []ComplianceCheck
	Errors    []string
}
