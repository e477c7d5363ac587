package keys

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/M051719/npivault/ccc/db"
)

// KeyRepository defines the persistence operations for symmetric keys.
// Keys are never deleted; rotation only flips the active flag so that
// ciphertext sealed under retired keys stays readable.
type KeyRepository interface {
	// GetActive retrieves the currently active key, or nil if none exists
	GetActive(ctx context.Context) (*SymmetricKey, error)

	// GetByID retrieves a key by its ID regardless of active state, or nil if not found
	GetByID(ctx context.Context, id string) (*SymmetricKey, error)

	// Add stores a new key
	Add(ctx context.Context, key *SymmetricKey) error

	// Retire marks the given key as inactive and records the retirement time
	Retire(ctx context.Context, id string) error
}

// SQLiteKeyRepository implements KeyRepository using SQLite
type SQLiteKeyRepository struct {
	db *sql.DB
}

// NewSQLiteKeyRepository creates a new SQLite-based KeyRepository
func NewSQLiteKeyRepository(database *sql.DB) (*SQLiteKeyRepository, error) {
	repo := &SQLiteKeyRepository{db: database}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteKeyRepository) createTables() error {
	createKeysTable := `
	CREATE TABLE IF NOT EXISTS symmetric_keys (
		id TEXT PRIMARY KEY,
		key_material BLOB NOT NULL,
		is_active INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		retired_at TEXT
	);`

	_, err := r.db.Exec(createKeysTable)
	return err
}

// GetActive retrieves the currently active key
func (r *SQLiteKeyRepository) GetActive(ctx context.Context) (*SymmetricKey, error) {
	query := `
	SELECT id, key_material, is_active, created_at, retired_at
	FROM symmetric_keys WHERE is_active = 1 LIMIT 1`

	return r.scanKey(r.db.QueryRowContext(ctx, query))
}

// GetByID retrieves a key by its ID regardless of active state
func (r *SQLiteKeyRepository) GetByID(ctx context.Context, id string) (*SymmetricKey, error) {
	query := `
	SELECT id, key_material, is_active, created_at, retired_at
	FROM symmetric_keys WHERE id = ?`

	return r.scanKey(r.db.QueryRowContext(ctx, query, id))
}

// Add stores a new key
func (r *SQLiteKeyRepository) Add(ctx context.Context, key *SymmetricKey) error {
	query := `
	INSERT INTO symmetric_keys (id, key_material, is_active, created_at, retired_at)
	VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		key.ID, key.Key, db.BoolToInt(key.Active), db.TimeToString(key.CreatedAt), db.TimePtrToString(key.RetiredAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add key: %w", err)
	}

	return nil
}

// Retire marks the given key as inactive
func (r *SQLiteKeyRepository) Retire(ctx context.Context, id string) error {
	query := `UPDATE symmetric_keys SET is_active = 0, retired_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, db.TimeToString(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to retire key: %w", err)
	}

	return nil
}

// scanKey reads a key row, returning nil when no row matched
func (r *SQLiteKeyRepository) scanKey(row *sql.Row) (*SymmetricKey, error) {
	key := &SymmetricKey{}
	var activeInt int
	var createdAtStr string
	var retiredAtStr *string

	err := row.Scan(&key.ID, &key.Key, &activeInt, &createdAtStr, &retiredAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan key: %w", err)
	}

	key.Active = db.IntToBool(activeInt)

	key.CreatedAt, err = db.StringToTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	key.RetiredAt, err = db.StringPtrToTime(retiredAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse retired_at: %w", err)
	}

	return key, nil
}
