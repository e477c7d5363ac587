package access

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/M051719/npivault/ccc/db"
)

// SubjectRepository defines the persistence operations for subjects
type SubjectRepository interface {
	// GetByID retrieves a Subject by its ID, or nil if not found
	GetByID(ctx context.Context, id string) (*Subject, error)

	// Add stores a new Subject
	Add(ctx context.Context, subject *Subject) error
}

// SQLiteSubjectRepository implements SubjectRepository using SQLite
type SQLiteSubjectRepository struct {
	db *sql.DB
}

// NewSQLiteSubjectRepository creates a new SQLite-based SubjectRepository
func NewSQLiteSubjectRepository(database *sql.DB) (*SQLiteSubjectRepository, error) {
	repo := &SQLiteSubjectRepository{db: database}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteSubjectRepository) createTables() error {
	createSubjectsTable := `
	CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`

	_, err := r.db.Exec(createSubjectsTable)
	return err
}

// GetByID retrieves a Subject by its ID
func (r *SQLiteSubjectRepository) GetByID(ctx context.Context, id string) (*Subject, error) {
	query := `SELECT id, name, role, created_at FROM subjects WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)

	subject := &Subject{}
	var roleStr string
	var createdAtStr string
	err := row.Scan(&subject.ID, &subject.Name, &roleStr, &createdAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subject by ID: %w", err)
	}

	subject.Role, err = ParseRole(roleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse role: %w", err)
	}

	subject.CreatedAt, err = db.StringToTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return subject, nil
}

// Add stores a new Subject
func (r *SQLiteSubjectRepository) Add(ctx context.Context, subject *Subject) error {
	query := `INSERT INTO subjects (id, name, role, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		subject.ID, subject.Name, string(subject.Role), db.TimeToString(subject.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add subject: %w", err)
	}

	return nil
}
