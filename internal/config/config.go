package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Ingestion client
	IngestEndpoint string
	IngestToken    string
	IngestTimeout  time.Duration
	IngestRate     float64 // submissions per second, 0 means unlimited
	FileExtension  string

	// Logging
	LogLevel string

	// Ingestion service
	APIPort        string
	APIHost        string
	MaxUploadBytes int64

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string

	// GitHub issue tracker (optional)
	GitHubToken string
	GitHubRepo  string // "owner/name"
}

// Load loads the configuration from environment variables.
// files are dotenv files loaded first; .env is used when none is given.
func Load(files ...string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load(files...)

	return &Config{
		IngestEndpoint: getEnv("INGEST_ENDPOINT", "http://localhost:9000"),
		IngestToken:    getEnv("INGEST_TOKEN", ""),
		IngestTimeout:  getEnvDuration("INGEST_TIMEOUT", 30*time.Second),
		IngestRate:     getEnvFloat("INGEST_RATE", 0),
		FileExtension:  getEnv("FILE_EXTENSION", ".msg"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		APIPort:        getEnv("API_PORT", "9000"),
		APIHost:        getEnv("API_HOST", "localhost"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 32<<20),
		StorageType:    getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "./ingest.db"),
		PostgresURL:    getEnv("POSTGRES_URL", ""),
		GitHubToken:    getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:     getEnv("GITHUB_REPO", ""),
	}, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return defaultValue
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	if c.IngestEndpoint == "" {
		return &ConfigError{Field: "INGEST_ENDPOINT", Message: "ingestion endpoint is required"}
	}
	if !strings.HasPrefix(c.IngestEndpoint, "http://") && !strings.HasPrefix(c.IngestEndpoint, "https://") {
		return &ConfigError{Field: "INGEST_ENDPOINT", Message: "must be an http or https URL"}
	}
	if c.IngestTimeout <= 0 {
		return &ConfigError{Field: "INGEST_TIMEOUT", Message: "must be positive"}
	}
	if c.IngestRate < 0 {
		return &ConfigError{Field: "INGEST_RATE", Message: "must not be negative"}
	}
	if c.FileExtension == "" {
		return &ConfigError{Field: "FILE_EXTENSION", Message: "file extension is required"}
	}
	return nil
}

// ValidateServer validates the ingestion service configuration
func (c *Config) ValidateServer() error {
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if c.MaxUploadBytes <= 0 {
		return &ConfigError{Field: "MAX_UPLOAD_BYTES", Message: "must be positive"}
	}
	if c.GitHubToken != "" {
		if _, _, ok := c.GitHubOwnerRepo(); !ok {
			return &ConfigError{Field: "GITHUB_REPO", Message: "must be 'owner/name' when GITHUB_TOKEN is set"}
		}
	}
	return nil
}

// GitHubOwnerRepo splits GitHubRepo into owner and name
func (c *Config) GitHubOwnerRepo() (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(c.GitHubRepo, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
