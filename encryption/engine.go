package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

// Constants for encryption parameters
const (
	KeyLength      = 32     // 256 bits for AES-256
	NonceLength    = 12     // 96 bits for GCM nonce
	TagLength      = 16     // 128 bits for GCM authentication tag
	saltLength     = 16     // 128 bits for index-hash salt
	iterationCount = 100000 // PBKDF2 iterations for index hashing
)

type Engine interface {
	// GenerateKey generates a new random 256-bit key
	GenerateKey() ([]byte, error)
	// Encrypt seals plaintext under the given key with a fresh random nonce
	Encrypt(plaintext []byte, key []byte, keyID string) (*EncryptedPayload, error)
	// Decrypt opens a payload, verifying the authentication tag
	Decrypt(payload *EncryptedPayload, key []byte) ([]byte, error)
	// HashForIndex derives a salted one-way digest suitable for equality indexing.
	// Pass a nil salt to generate a random one; pass a stored salt to verify.
	HashForIndex(data []byte, salt []byte) (*IndexHash, error)
	// DeriveKey deterministically derives a purpose-bound sub-key from a master key
	DeriveKey(masterKey []byte, purpose string, info string) ([]byte, error)
	// ValidateCompliance checks the engine configuration against the regulatory minimum
	ValidateCompliance() *ComplianceResult
}

// AESEngine implements the Engine interface using AES-256-GCM
type AESEngine struct{}

// NewAESEngine creates a new AESEngine instance
func NewAESEngine() *AESEngine {
	return &AESEngine{}
}

// GenerateKey generates a new random 256-bit key
func (e *AESEngine) GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext under the given key using AES-256-GCM. A fresh
// random nonce is generated on every call; reusing a nonce under the same
// key would break the cipher, so the nonce is never caller-supplied.
func (e *AESEngine) Encrypt(plaintext []byte, key []byte, keyID string) (*EncryptedPayload, error) {
	if len(plaintext) == 0 {
		return nil, NewInvalidInputError("plaintext must not be empty")
	}
	if len(key) == 0 {
		return nil, NewInvalidInputError("key must not be empty")
	}
	if len(key) != KeyLength {
		return nil, NewInvalidKeyLengthError(len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCMWithTagSize(block, TagLength)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	// Seal appends the tag to the ciphertext; keep them separate in the
	// payload so the tag's presence can be checked independently.
	ciphertext := sealed[:len(sealed)-TagLength]
	tag := sealed[len(sealed)-TagLength:]

	return &EncryptedPayload{
		Ciphertext: ciphertext,
		IV:         nonce,
		AuthTag:    tag,
		Algorithm:  Algorithm,
		KeyID:      keyID,
	}, nil
}

// Decrypt opens a payload with the given key. It fails closed: if the
// authentication tag does not verify, no plaintext is returned.
func (e *AESEngine) Decrypt(payload *EncryptedPayload, key []byte) ([]byte, error) {
	if payload == nil {
		return nil, NewInvalidInputError("payload must not be nil")
	}
	if payload.Algorithm != Algorithm {
		return nil, NewUnsupportedAlgorithmError(payload.Algorithm)
	}
	if len(payload.Ciphertext) == 0 {
		return nil, NewInvalidInputError("payload has no ciphertext")
	}
	if len(payload.AuthTag) != TagLength {
		return nil, NewInvalidInputError("payload has no valid authentication tag")
	}
	if len(payload.IV) != NonceLength {
		return nil, NewInvalidInputError("payload has no valid initialization vector")
	}
	if len(key) == 0 {
		return nil, NewInvalidInputError("key must not be empty")
	}
	if len(key) != KeyLength {
		return nil, NewInvalidKeyLengthError(len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCMWithTagSize(block, TagLength)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(payload.Ciphertext)+len(payload.AuthTag))
	sealed = append(sealed, payload.Ciphertext...)
	sealed = append(sealed, payload.AuthTag...)

	plaintext, err := gcm.Open(nil, payload.IV, sealed, nil)
	if err != nil {
		// GCM does not distinguish tampering causes; all open failures
		// are integrity failures from the caller's point of view.
		return nil, NewIntegrityFailureError()
	}

	return plaintext, nil
}

// HashForIndex derives a salted PBKDF2 digest of the given data. The
// iteration count is deliberately high so the digest resists offline
// guessing of low-entropy inputs such as account numbers.
func (e *AESEngine) HashForIndex(data []byte, salt []byte) (*IndexHash, error) {
	if len(data) == 0 {
		return nil, NewInvalidInputError("data must not be empty")
	}

	if salt == nil {
		salt = make([]byte, saltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, err
		}
	}

	hash := pbkdf2.Key(data, salt, iterationCount, KeyLength, sha256.New)

	return &IndexHash{Hash: hash, Salt: salt}, nil
}

// DeriveKey derives a sub-key from a master key using HKDF-SHA256. The same
// (masterKey, purpose, info) triple always yields the same sub-key, so
// distinct purposes never share key material without needing separate
// secure storage.
func (e *AESEngine) DeriveKey(masterKey []byte, purpose string, info string) ([]byte, error) {
	if len(masterKey) != KeyLength {
		return nil, NewInvalidKeyLengthError(len(masterKey))
	}
	if purpose == "" {
		return nil, NewInvalidInputError("purpose must not be empty")
	}

	reader := hkdf.New(sha256.New, masterKey, []byte(purpose), []byte(info))

	derived := make([]byte, KeyLength)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return derived, nil
}

// ValidateCompliance checks the configured algorithm, key length and tag
// length against the regulatory minimum (AES-256 with a 128-bit tag). The
// result is used for reporting; enforcement is structural because the
// engine only implements the compliant algorithm.
func (e *AESEngine) ValidateCompliance() *ComplianceResult {
	result := &ComplianceResult{Compliant: true}

	checks := []ComplianceCheck{
		{
			Name:   "approved_algorithm",
			Passed: Algorithm == "aes-256-gcm",
			Detail: fmt.Sprintf("algorithm is %s", Algorithm),
		},
		{
			Name:   "key_length",
			Passed: KeyLength*8 >= 256,
			Detail: fmt.Sprintf("key length is %d bits", KeyLength*8),
		},
		{
			Name:   "auth_tag_length",
			Passed: TagLength*8 >= 128,
			Detail: fmt.Sprintf("authentication tag length is %d bits", TagLength*8),
		},
	}

	for _, check := range checks {
		if !check.Passed {
			result.Compliant = false
			result.Errors = append(result.Errors, fmt.Sprintf("check %s failed: %s", check.Name, check.Detail))
		}
	}
	result.Checks = checks

	return result
}
