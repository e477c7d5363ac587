package documents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/M051719/npivault/ccc/db"
)

// DocumentRepository defines the persistence operations for secure documents
type DocumentRepository interface {
	// GetByID retrieves a document by its ID, or nil if not found
	GetByID(ctx context.Context, id string) (*SecureDocument, error)

	// ListByOwner retrieves the metadata of all documents owned by a subject
	ListByOwner(ctx context.Context, ownerID string) ([]*DocumentInfo, error)

	// Add stores a new document
	Add(ctx context.Context, doc *SecureDocument) error

	// IncrementAccessCount atomically bumps the access counter and records
	// the access time. Concurrent downloads must not lose updates.
	IncrementAccessCount(ctx context.Context, id string, accessedAt time.Time) error

	// Deactivate soft-deletes a document; ciphertext and history are retained
	Deactivate(ctx context.Context, id string) error
}

// SQLiteDocumentRepository implements DocumentRepository using SQLite
type SQLiteDocumentRepository struct {
	db *sql.DB
}

// NewSQLiteDocumentRepository creates a new SQLite-based DocumentRepository
func NewSQLiteDocumentRepository(database *sql.DB) (*SQLiteDocumentRepository, error) {
	repo := &SQLiteDocumentRepository{db: database}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteDocumentRepository) createTables() error {
	createDocumentsTable := `
	CREATE TABLE IF NOT EXISTS secure_documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL,
		ciphertext BLOB NOT NULL,
		iv BLOB NOT NULL,
		auth_tag BLOB NOT NULL,
		algorithm TEXT NOT NULL,
		key_id TEXT NOT NULL,
		size INTEGER NOT NULL,
		owner_id TEXT NOT NULL,
		uploaded_at TEXT NOT NULL,
		expires_at TEXT,
		access_count INTEGER NOT NULL,
		last_accessed_at TEXT,
		is_active INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_owner ON secure_documents (owner_id, uploaded_at);`

	_, err := r.db.Exec(createDocumentsTable)
	return err
}

// GetByID retrieves a document by its ID
func (r *SQLiteDocumentRepository) GetByID(ctx context.Context, id string) (*SecureDocument, error) {
	query := `
	SELECT id, filename, content_type, ciphertext, iv, auth_tag, algorithm, key_id, size,
		   owner_id, uploaded_at, expires_at, access_count, last_accessed_at, is_active
	FROM secure_documents WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)

	doc := &SecureDocument{}
	var uploadedAtStr string
	var expiresAtStr *string
	var lastAccessedAtStr *string
	var activeInt int

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.ContentType,
		&doc.Payload.Ciphertext, &doc.Payload.IV, &doc.Payload.AuthTag, &doc.Payload.Algorithm, &doc.Payload.KeyID,
		&doc.Size, &doc.OwnerID, &uploadedAtStr, &expiresAtStr, &doc.AccessCount, &lastAccessedAtStr, &activeInt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}

	doc.UploadedAt, err = db.StringToTime(uploadedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uploaded_at: %w", err)
	}

	doc.ExpiresAt, err = db.StringPtrToTime(expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	doc.LastAccessedAt, err = db.StringPtrToTime(lastAccessedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_accessed_at: %w", err)
	}

	doc.Active = db.IntToBool(activeInt)
	return doc, nil
}

// ListByOwner retrieves the metadata of all documents owned by a subject
func (r *SQLiteDocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*DocumentInfo, error) {
	query := `
	SELECT id, filename, content_type, size, owner_id, uploaded_at, expires_at, access_count, last_accessed_at, is_active
	FROM secure_documents WHERE owner_id = ?
	ORDER BY uploaded_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var infos []*DocumentInfo
	for rows.Next() {
		info := &DocumentInfo{}
		var uploadedAtStr string
		var expiresAtStr *string
		var lastAccessedAtStr *string
		var activeInt int

		err := rows.Scan(
			&info.ID, &info.Filename, &info.ContentType, &info.Size, &info.OwnerID,
			&uploadedAtStr, &expiresAtStr, &info.AccessCount, &lastAccessedAtStr, &activeInt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document info: %w", err)
		}

		info.UploadedAt, err = db.StringToTime(uploadedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse uploaded_at: %w", err)
		}

		info.ExpiresAt, err = db.StringPtrToTime(expiresAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expires_at: %w", err)
		}

		info.LastAccessedAt, err = db.StringPtrToTime(lastAccessedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_accessed_at: %w", err)
		}

		info.Active = db.IntToBool(activeInt)
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

// Add stores a new document
func (r *SQLiteDocumentRepository) Add(ctx context.Context, doc *SecureDocument) error {
	query := `
	INSERT INTO secure_documents (id, filename, content_type, ciphertext, iv, auth_tag, algorithm, key_id, size,
								  owner_id, uploaded_at, expires_at, access_count, last_accessed_at, is_active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.Filename, doc.ContentType,
		doc.Payload.Ciphertext, doc.Payload.IV, doc.Payload.AuthTag, doc.Payload.Algorithm, doc.Payload.KeyID,
		doc.Size, doc.OwnerID, db.TimeToString(doc.UploadedAt), db.TimePtrToString(doc.ExpiresAt),
		doc.AccessCount, db.TimePtrToString(doc.LastAccessedAt), db.BoolToInt(doc.Active),
	)
	if err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}

	return nil
}

// IncrementAccessCount atomically bumps the access counter. A single UPDATE
// avoids the lost-update hazard of read-modify-write under concurrency.
func (r *SQLiteDocumentRepository) IncrementAccessCount(ctx context.Context, id string, accessedAt time.Time) error {
	query := `
	UPDATE secure_documents
	SET access_count = access_count + 1, last_accessed_at = ?
	WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, db.TimeToString(accessedAt), id)
	if err != nil {
		return fmt.Errorf("failed to increment access count: %w", err)
	}

	return nil
}

// Deactivate soft-deletes a document
func (r *SQLiteDocumentRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE secure_documents SET is_active = 0 WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate document: %w", err)
	}

	return nil
}
