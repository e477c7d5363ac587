package access

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/M051719/npivault/ccc/db"
)

// AuditRepository defines the persistence operations for the audit trail.
// The interface deliberately has no update or delete methods; the audit log
// is append-only and is the compliance system of record.
type AuditRepository interface {
	// Add appends a new entry to the audit trail
	Add(ctx context.Context, entry *AuditLogEntry) error

	// QueryRange retrieves all entries with timestamps inside [start, end]
	QueryRange(ctx context.Context, start, end time.Time) ([]*AuditLogEntry, error)

	// QueryBySubject retrieves the most recent entries for a subject
	QueryBySubject(ctx context.Context, subjectID string, limit int) ([]*AuditLogEntry, error)
}

// SQLiteAuditRepository implements AuditRepository using SQLite
type SQLiteAuditRepository struct {
	db *sql.DB
}

// NewSQLiteAuditRepository creates a new SQLite-based AuditRepository
func NewSQLiteAuditRepository(database *sql.DB) (*SQLiteAuditRepository, error) {
	repo := &SQLiteAuditRepository{db: database}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteAuditRepository) createTables() error {
	createAuditTable := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		action TEXT NOT NULL,
		purpose TEXT NOT NULL,
		granted INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		reason TEXT NOT NULL,
		detail TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log (timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_subject ON audit_log (subject_id, timestamp);`

	_, err := r.db.Exec(createAuditTable)
	return err
}

// Add appends a new entry to the audit trail
func (r *SQLiteAuditRepository) Add(ctx context.Context, entry *AuditLogEntry) error {
	query := `
	INSERT INTO audit_log (id, subject_id, resource_type, resource_id, action, purpose, granted, timestamp, ip_address, user_agent, reason, detail)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.SubjectID, entry.ResourceType, entry.ResourceID, entry.Action, entry.Purpose,
		db.BoolToInt(entry.Granted), db.TimeToString(entry.Timestamp), entry.IPAddress, entry.UserAgent, entry.Reason, entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to add audit entry: %w", err)
	}

	return nil
}

// QueryRange retrieves all entries with timestamps inside [start, end]
func (r *SQLiteAuditRepository) QueryRange(ctx context.Context, start, end time.Time) ([]*AuditLogEntry, error) {
	query := `
	SELECT id, subject_id, resource_type, resource_id, action, purpose, granted, timestamp, ip_address, user_agent, reason, detail
	FROM audit_log WHERE timestamp >= ? AND timestamp <= ?
	ORDER BY timestamp ASC`

	rows, err := r.db.QueryContext(ctx, query, db.TimeToString(start), db.TimeToString(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// QueryBySubject retrieves the most recent entries for a subject
func (r *SQLiteAuditRepository) QueryBySubject(ctx context.Context, subjectID string, limit int) ([]*AuditLogEntry, error) {
	query := `
	SELECT id, subject_id, resource_type, resource_id, action, purpose, granted, timestamp, ip_address, user_agent, reason, detail
	FROM audit_log WHERE subject_id = ?
	ORDER BY timestamp DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log by subject: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// scanEntries reads all audit rows from the result set
func (r *SQLiteAuditRepository) scanEntries(rows *sql.Rows) ([]*AuditLogEntry, error) {
	var entries []*AuditLogEntry
	for rows.Next() {
		entry := &AuditLogEntry{}
		var grantedInt int
		var timestampStr string

		err := rows.Scan(
			&entry.ID, &entry.SubjectID, &entry.ResourceType, &entry.ResourceID, &entry.Action, &entry.Purpose,
			&grantedInt, &timestampStr, &entry.IPAddress, &entry.UserAgent, &entry.Reason, &entry.Detail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		entry.Granted = db.IntToBool(grantedInt)

		entry.Timestamp, err = db.StringToTime(timestampStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
