package access

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/M051719/npivault/ccc/db"
)

// PermissionRepository defines the persistence operations for explicit grants
type PermissionRepository interface {
	// FindActive retrieves the active, non-expired permission matching the
	// given subject and resource as of the given time, or nil if none exists
	FindActive(ctx context.Context, subjectID, resourceType, resourceID string, asOf time.Time) (*AccessPermission, error)

	// Add stores a new permission
	Add(ctx context.Context, permission *AccessPermission) error

	// GetByID retrieves a permission by its ID, or nil if not found
	GetByID(ctx context.Context, id string) (*AccessPermission, error)

	// Deactivate marks the given permission as inactive
	Deactivate(ctx context.Context, id string) error
}

// SQLitePermissionRepository implements PermissionRepository using SQLite
type SQLitePermissionRepository struct {
	db *sql.DB
}

// NewSQLitePermissionRepository creates a new SQLite-based PermissionRepository
func NewSQLitePermissionRepository(database *sql.DB) (*SQLitePermissionRepository, error) {
	repo := &SQLitePermissionRepository{db: database}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLitePermissionRepository) createTables() error {
	createPermissionsTable := `
	CREATE TABLE IF NOT EXISTS access_permissions (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		granted_by TEXT NOT NULL,
		reason TEXT NOT NULL,
		granted_at TEXT NOT NULL,
		expires_at TEXT,
		is_active INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_permissions_lookup
		ON access_permissions (subject_id, resource_type, resource_id);`

	_, err := r.db.Exec(createPermissionsTable)
	return err
}

// FindActive retrieves the newest active, non-expired permission for the
// given subject and resource. Expiry is evaluated in Go against asOf so that
// a lapsed grant behaves identically to no grant existing; a newer expired
// grant does not shadow an older still-valid one.
func (r *SQLitePermissionRepository) FindActive(ctx context.Context, subjectID, resourceType, resourceID string, asOf time.Time) (*AccessPermission, error) {
	query := `
	SELECT id, subject_id, resource_type, resource_id, granted_by, reason, granted_at, expires_at, is_active
	FROM access_permissions
	WHERE subject_id = ? AND resource_type = ? AND resource_id = ? AND is_active = 1
	ORDER BY granted_at DESC`

	rows, err := r.db.QueryContext(ctx, query, subjectID, resourceType, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find permission: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		permission, err := r.scanPermission(rows)
		if err != nil {
			return nil, err
		}
		if permission.ExpiredAt(asOf) {
			continue
		}
		return permission, nil
	}

	return nil, rows.Err()
}

// Add stores a new permission
func (r *SQLitePermissionRepository) Add(ctx context.Context, permission *AccessPermission) error {
	query := `
	INSERT INTO access_permissions (id, subject_id, resource_type, resource_id, granted_by, reason, granted_at, expires_at, is_active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		permission.ID, permission.SubjectID, permission.ResourceType, permission.ResourceID,
		permission.GrantedBy, permission.Reason, db.TimeToString(permission.GrantedAt),
		db.TimePtrToString(permission.ExpiresAt), db.BoolToInt(permission.Active),
	)
	if err != nil {
		return fmt.Errorf("failed to add permission: %w", err)
	}

	return nil
}

// GetByID retrieves a permission by its ID
func (r *SQLitePermissionRepository) GetByID(ctx context.Context, id string) (*AccessPermission, error) {
	query := `
	SELECT id, subject_id, resource_type, resource_id, granted_by, reason, granted_at, expires_at, is_active
	FROM access_permissions WHERE id = ?`

	return r.scanPermission(r.db.QueryRowContext(ctx, query, id))
}

// Deactivate marks the given permission as inactive
func (r *SQLitePermissionRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE access_permissions SET is_active = 0 WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate permission: %w", err)
	}

	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPermission reads a permission row, returning nil when no row matched
func (r *SQLitePermissionRepository) scanPermission(row rowScanner) (*AccessPermission, error) {
	permission := &AccessPermission{}
	var grantedAtStr string
	var expiresAtStr *string
	var activeInt int

	err := row.Scan(
		&permission.ID, &permission.SubjectID, &permission.ResourceType, &permission.ResourceID,
		&permission.GrantedBy, &permission.Reason, &grantedAtStr, &expiresAtStr, &activeInt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan permission: %w", err)
	}

	permission.GrantedAt, err = db.StringToTime(grantedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse granted_at: %w", err)
	}

	permission.ExpiresAt, err = db.StringPtrToTime(expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse expires_at: %w", err)
	}

	permission.Active = db.IntToBool(activeInt)
	return permission, nil
}
