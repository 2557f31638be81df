package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/msg-ingest/internal/api"
	"github.com/kurihiro0119/msg-ingest/internal/config"
	"github.com/kurihiro0119/msg-ingest/internal/logging"
	"github.com/kurihiro0119/msg-ingest/internal/storage"
	"github.com/kurihiro0119/msg-ingest/internal/storage/postgres"
	"github.com/kurihiro0119/msg-ingest/internal/storage/sqlite"
	"github.com/kurihiro0119/msg-ingest/internal/tracker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load configuration", err)
	}
	logging.Setup(os.Stderr, cfg.SlogLevel())

	if err := cfg.ValidateServer(); err != nil {
		fatal("invalid configuration", err)
	}

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			fatal("failed to initialize PostgreSQL storage", err)
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			fatal("failed to initialize SQLite storage", err)
		}
	}
	defer store.Close()

	// Optional external issue tracker
	var tr tracker.Tracker
	if owner, repo, ok := cfg.GitHubOwnerRepo(); ok && cfg.GitHubToken != "" {
		tr = tracker.NewGitHubTracker(cfg.GitHubToken, owner, repo)
		slog.Info("filing GitHub issues", "repo", cfg.GitHubRepo)
	}

	if cfg.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(store, tr, cfg.MaxUploadBytes)
	router := api.SetupRoutes(handler)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	slog.Info("starting ingestion service", "addr", addr, "storage", cfg.StorageType)

	if err := router.Run(addr); err != nil {
		fatal("failed to start server", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
