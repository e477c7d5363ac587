package documents

import (
	"time"

	"github.com/M051719/npivault/encryption"
)

// SecureDocument is an encrypted file at rest. The plaintext exists only
// transiently during upload and download; everything persisted is sealed in
// the payload.
type SecureDocument struct {
	ID             string                      // Unique identifier for the document
	Filename       string                      // Original filename as uploaded
	ContentType    string                      // Declared MIME type, validated against the allow-list
	Payload        encryption.EncryptedPayload // Sealed file content
	Size           int64                       // Plaintext size in bytes
	OwnerID        string                      // Identity of the uploader
	UploadedAt     time.Time                   // Timestamp of upload
	ExpiresAt      *time.Time                  // Optional expiry; past expiry all access fails
	AccessCount    int64                       // Incremented on every successful download
	LastAccessedAt *time.Time                  // Timestamp of the most recent download
	Active         bool                        // False once revoked (soft delete)
}

// DocumentInfo is the metadata view of a document, safe to list without any
// access to the ciphertext or key material.
type DocumentInfo struct {
	ID             string
	Filename       string
	ContentType    string
	Size           int64
	OwnerID        string
	UploadedAt     time.Time
	ExpiresAt      *time.Time
	AccessCount    int64
	LastAccessedAt *time.Time
	Active         bool
}

// allowedContentTypes is the upload allow-list. Anything else is rejected
// before encryption is attempted.
var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"text/plain": true,
	"text/csv":   true,
}

// IsAllowedContentType reports whether the declared MIME type may be uploaded.
func IsAllowedContentType(contentType string) bool {
	return allowedContentTypes[contentType]
}

// IsAvailableAt reports whether the document can be served at the given
// time: it must not be revoked and must not be past its expiry.
func (d *SecureDocument) IsAvailableAt(t time.Time) bool {
	if !d.Active {
		return false
	}
	if d.ExpiresAt != nil && d.ExpiresAt.Before(t) {
		return false
	}
	return true
}
