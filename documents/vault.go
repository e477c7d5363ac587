package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/M051719/npivault/access"
	"github.com/M051719/npivault/ccc/logging"
	"github.com/M051719/npivault/encryption"
	"github.com/M051719/npivault/keys"
)

const hoursPerDay = 24

// UploadRequest carries everything needed to store a new secure document.
type UploadRequest struct {
	SubjectID     string
	Filename      string
	ContentType   string
	Data          []byte
	ExpiresInDays int // 0 means no expiry
	Request       access.RequestContext
}

// DownloadResult is the decrypted document returned to an authorized caller.
type DownloadResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

type Vault interface {
	// Upload authorizes, encrypts and persists a new document, returning its ID
	Upload(ctx context.Context, req UploadRequest) (string, error)
	// Download authorizes and decrypts a document for the caller
	Download(ctx context.Context, subjectID, documentID string, rctx access.RequestContext) (*DownloadResult, error)
	// Revoke soft-deletes a document; ciphertext and audit history are retained
	Revoke(ctx context.Context, subjectID, documentID string, rctx access.RequestContext) error
	// ListDocuments returns the metadata of the caller's own documents
	ListDocuments(ctx context.Context, subjectID string) ([]*DocumentInfo, error)
}

type vault struct {
	logger     logging.Logger
	repo       DocumentRepository
	keyManager keys.Manager
	engine     encryption.Engine
	acl        access.Engine
	now        func() time.Time
}

func NewVault(logger logging.Logger, repo DocumentRepository, keyManager keys.Manager, engine encryption.Engine, acl access.Engine) *vault {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &vault{
		logger:     logger,
		repo:       repo,
		keyManager: keyManager,
		engine:     engine,
		acl:        acl,
		now:        time.Now,
	}
}

func (v *vault) Upload(ctx context.Context, req UploadRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", encryption.NewInvalidInputError("document data must not be empty")
	}
	if req.Filename == "" {
		return "", encryption.NewInvalidInputError("filename is required")
	}

	// Reject disallowed content types before any crypto work.
	if !IsAllowedContentType(req.ContentType) {
		return "", encryption.NewInvalidInputError(fmt.Sprintf("content type %q is not allowed", req.ContentType))
	}

	allowed := v.acl.CheckAccess(ctx, access.AccessRequest{
		SubjectID:    req.SubjectID,
		ResourceType: access.ResourceDocument,
		ResourceID:   req.Filename,
		Action:       access.ActionUpload,
		Purpose:      "document upload",
		Request:      req.Request,
	})
	if !allowed {
		return "", NewAccessDeniedError(req.SubjectID, req.Filename, access.ActionUpload)
	}

	key, err := v.keyManager.GetActiveKey(ctx)
	if err != nil {
		v.logger.Error("Failed to get active key for upload", "error", err)
		return "", NewStorageError("key lookup", err)
	}

	payload, err := v.engine.Encrypt(req.Data, key.Key, key.ID)
	if err != nil {
		v.logger.Error("Failed to encrypt document", "error", err, "filename", req.Filename)
		return "", err
	}

	now := v.now().UTC()

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := now.Add(time.Duration(req.ExpiresInDays) * hoursPerDay * time.Hour)
		expiresAt = &t
	}

	doc := &SecureDocument{
		ID:          uuid.NewString(),
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Payload:     *payload,
		Size:        int64(len(req.Data)),
		OwnerID:     req.SubjectID,
		UploadedAt:  now,
		ExpiresAt:   expiresAt,
		AccessCount: 0,
		Active:      true,
	}

	// Encrypt-then-persist must not persist after cancellation.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := v.repo.Add(ctx, doc); err != nil {
		v.logger.Error("Failed to persist document", "error", err, "document_id", doc.ID)
		return "", NewStorageError("document insert", err)
	}

	v.logger.Info("Stored encrypted document", "document_id", doc.ID, "owner_id", req.SubjectID, "size", doc.Size)
	return doc.ID, nil
}

func (v *vault) Download(ctx context.Context, subjectID, documentID string, rctx access.RequestContext) (*DownloadResult, error) {
	doc, err := v.repo.GetByID(ctx, documentID)
	if err != nil {
		v.logger.Error("Failed to load document", "error", err, "document_id", documentID)
		return nil, NewStorageError("document lookup", err)
	}
	if doc == nil {
		return nil, NewDocumentUnavailableError(documentID)
	}

	req := access.AccessRequest{
		SubjectID:    subjectID,
		ResourceType: access.ResourceDocument,
		ResourceID:   documentID,
		Action:       access.ActionDownload,
		Purpose:      "document download",
		Request:      rctx,
	}

	// Revoked and expired documents no longer exist from the requester's
	// point of view, but the attempt is still recorded in the audit trail.
	if !doc.IsAvailableAt(v.now()) {
		if err := v.acl.RecordDecision(ctx, req, false, "document unavailable"); err != nil {
			v.logger.Error("Failed to audit unavailable-document access", "error", err, "document_id", documentID)
		}
		return nil, NewDocumentUnavailableError(documentID)
	}

	if !v.authorize(ctx, doc, req) {
		return nil, NewAccessDeniedError(subjectID, documentID, access.ActionDownload)
	}

	// Resolve the key the payload was sealed under; it may be retired.
	key, err := v.keyManager.GetKeyByID(ctx, doc.Payload.KeyID)
	if err != nil {
		v.logger.Error("Failed to resolve document key", "error", err, "document_id", documentID, "key_id", doc.Payload.KeyID)
		return nil, NewStorageError("key lookup", err)
	}

	plaintext, err := v.engine.Decrypt(&doc.Payload, key.Key)
	if err != nil {
		v.logger.Error("Failed to decrypt document", "error", err, "document_id", documentID)
		return nil, err
	}

	if err := v.repo.IncrementAccessCount(ctx, documentID, v.now().UTC()); err != nil {
		v.logger.Error("Failed to increment access count", "error", err, "document_id", documentID)
		return nil, NewStorageError("access count update", err)
	}

	v.logger.Info("Served decrypted document", "document_id", documentID, "subject_id", subjectID)
	return &DownloadResult{
		Data:        plaintext,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
	}, nil
}

func (v *vault) Revoke(ctx context.Context, subjectID, documentID string, rctx access.RequestContext) error {
	doc, err := v.repo.GetByID(ctx, documentID)
	if err != nil {
		v.logger.Error("Failed to load document for revocation", "error", err, "document_id", documentID)
		return NewStorageError("document lookup", err)
	}
	if doc == nil {
		return NewDocumentUnavailableError(documentID)
	}

	req := access.AccessRequest{
		SubjectID:    subjectID,
		ResourceType: access.ResourceDocument,
		ResourceID:   documentID,
		Action:       access.ActionDelete,
		Purpose:      "document revocation",
		Request:      rctx,
	}

	if !v.authorize(ctx, doc, req) {
		return NewAccessDeniedError(subjectID, documentID, access.ActionDelete)
	}

	if err := v.repo.Deactivate(ctx, documentID); err != nil {
		v.logger.Error("Failed to deactivate document", "error", err, "document_id", documentID)
		return NewStorageError("document deactivate", err)
	}

	v.logger.Info("Revoked document", "document_id", documentID, "subject_id", subjectID)
	return nil
}

func (v *vault) ListDocuments(ctx context.Context, subjectID string) ([]*DocumentInfo, error) {
	infos, err := v.repo.ListByOwner(ctx, subjectID)
	if err != nil {
		v.logger.Error("Failed to list documents", "error", err, "subject_id", subjectID)
		return nil, NewStorageError("document list", err)
	}

	return infos, nil
}

// authorize grants document owners access to their own documents and sends
// everyone else through the access control engine. Both paths produce
// exactly one audit entry; an owner access that cannot be audited is denied.
func (v *vault) authorize(ctx context.Context, doc *SecureDocument, req access.AccessRequest) bool {
	if doc.OwnerID == req.SubjectID {
		if err := v.acl.RecordDecision(ctx, req, true, "document owner"); err != nil {
			v.logger.Error("Failed to audit owner access, denying", "error", err, "document_id", doc.ID)
			return false
		}
		return true
	}

	return v.acl.CheckAccess(ctx, req)
}
