package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
	apperrors "github.com/kurihiro0119/msg-ingest/internal/errors"
	"github.com/kurihiro0119/msg-ingest/internal/storage"
)

// sqliteStorage implements the Storage interface for SQLite
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (storage.Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS issues (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		size INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		external_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);
	CREATE INDEX IF NOT EXISTS idx_issues_sha256 ON issues(sha256);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveIssue saves an ingested issue
func (s *sqliteStorage) SaveIssue(ctx context.Context, issue *domain.Issue) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issues (id, file_name, size, sha256, external_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, issue.ID, issue.FileName, issue.Size, issue.SHA256, issue.ExternalRef, issue.CreatedAt.UTC())
	return err
}

// GetIssue retrieves an issue by id
func (s *sqliteStorage) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, size, sha256, external_ref, created_at
		FROM issues WHERE id = ? OR (external_ref <> '' AND external_ref = ?)
		LIMIT 1
	`, id, id)

	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("issue " + id)
	}
	return issue, err
}

// ListIssues returns the most recent issues first
func (s *sqliteStorage) ListIssues(ctx context.Context, limit int) ([]*domain.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, size, sha256, external_ref, created_at
		FROM issues
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []*domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// Close closes the database connection
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row scanner) (*domain.Issue, error) {
	var issue domain.Issue
	var createdAt time.Time
	if err := row.Scan(&issue.ID, &issue.FileName, &issue.Size, &issue.SHA256, &issue.ExternalRef, &createdAt); err != nil {
		return nil, err
	}
	issue.CreatedAt = createdAt
	return &issue, nil
}
