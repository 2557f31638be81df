package storage

import (
	"context"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
)

// Storage is the abstract interface for the persistence layer of the ingestion service
type Storage interface {
	// Issue operations
	SaveIssue(ctx context.Context, issue *domain.Issue) error
	GetIssue(ctx context.Context, id string) (*domain.Issue, error)
	ListIssues(ctx context.Context, limit int) ([]*domain.Issue, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
