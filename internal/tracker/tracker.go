// Package tracker files ingested messages in an external issue tracker.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
	"github.com/kurihiro0119/msg-ingest/internal/logging"
)

// Tracker creates an external issue for an ingested file
type Tracker interface {
	// CreateIssue files the issue and returns its reference in the tracker
	CreateIssue(ctx context.Context, issue *domain.Issue) (string, error)
}

// githubTracker implements Tracker using GitHub issues
type githubTracker struct {
	client *github.Client
	owner  string
	repo   string
	logger *slog.Logger
}

// NewGitHubTracker creates a tracker filing issues in owner/repo
func NewGitHubTracker(token, owner, repo string) Tracker {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return newGitHubTracker(github.NewClient(tc), owner, repo)
}

func newGitHubTracker(client *github.Client, owner, repo string) *githubTracker {
	return &githubTracker{
		client: client,
		owner:  owner,
		repo:   repo,
		logger: logging.Component("github-tracker"),
	}
}

// CreateIssue opens a GitHub issue for the ingested file and returns its number
func (t *githubTracker) CreateIssue(ctx context.Context, issue *domain.Issue) (string, error) {
	req := &github.IssueRequest{
		Title: github.String("Ingested message: " + issue.FileName),
		Body:  github.String(issueBody(issue)),
	}

	created, _, err := t.client.Issues.Create(ctx, t.owner, t.repo, req)
	if err != nil {
		return "", fmt.Errorf("failed to create issue in %s/%s: %w", t.owner, t.repo, err)
	}

	ref := strconv.Itoa(created.GetNumber())
	t.logger.Info("issue created", "repo", t.owner+"/"+t.repo, "number", ref, "file", issue.FileName)
	return ref, nil
}

func issueBody(issue *domain.Issue) string {
	return fmt.Sprintf("| Field | Value |\n|---|---|\n| File | `%s` |\n| Size | %d bytes |\n| SHA-256 | `%s` |\n| Ingest ID | `%s` |\n",
		issue.FileName, issue.Size, issue.SHA256, issue.ID)
}
