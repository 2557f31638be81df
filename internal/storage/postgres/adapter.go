package postgres

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
	apperrors "github.com/kurihiro0119/msg-ingest/internal/errors"
	"github.com/kurihiro0119/msg-ingest/internal/storage"
)

// postgresStorage implements the Storage interface for PostgreSQL
type postgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage creates a new PostgreSQL storage instance
func NewPostgresStorage(connStr string) (storage.Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &postgresStorage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStorage) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS issues (
		seq BIGSERIAL UNIQUE,
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		size BIGINT NOT NULL,
		sha256 TEXT NOT NULL,
		external_ref TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);
	CREATE INDEX IF NOT EXISTS idx_issues_sha256 ON issues(sha256);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveIssue saves an ingested issue
func (s *postgresStorage) SaveIssue(ctx context.Context, issue *domain.Issue) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO issues (id, file_name, size, sha256, external_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, issue.ID, issue.FileName, issue.Size, issue.SHA256, issue.ExternalRef, issue.CreatedAt.UTC())
	return err
}

// GetIssue retrieves an issue by id or external reference
func (s *postgresStorage) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	var issue domain.Issue
	err := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, size, sha256, external_ref, created_at
		FROM issues WHERE id = $1 OR (external_ref <> '' AND external_ref = $1)
		LIMIT 1
	`, id).Scan(&issue.ID, &issue.FileName, &issue.Size, &issue.SHA256, &issue.ExternalRef, &issue.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("issue " + id)
	}
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListIssues returns the most recent issues first
func (s *postgresStorage) ListIssues(ctx context.Context, limit int) ([]*domain.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, size, sha256, external_ref, created_at
		FROM issues
		ORDER BY created_at DESC, seq DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []*domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(&issue.ID, &issue.FileName, &issue.Size, &issue.SHA256, &issue.ExternalRef, &issue.CreatedAt); err != nil {
			return nil, err
		}
		issues = append(issues, &issue)
	}
	return issues, rows.Err()
}

// Close closes the database connection
func (s *postgresStorage) Close() error {
	return s.db.Close()
}
