package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"INGEST_ENDPOINT", "INGEST_TOKEN", "INGEST_TIMEOUT", "INGEST_RATE", "FILE_EXTENSION",
	"LOG_LEVEL", "API_PORT", "API_HOST", "MAX_UPLOAD_BYTES", "STORAGE_TYPE",
	"SQLITE_PATH", "POSTGRES_URL", "GITHUB_TOKEN", "GITHUB_REPO",
}

// clearEnv blanks every config key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.IngestEndpoint)
	assert.Equal(t, 30*time.Second, cfg.IngestTimeout)
	assert.Equal(t, float64(0), cfg.IngestRate)
	assert.Equal(t, ".msg", cfg.FileExtension)
	assert.Equal(t, "9000", cfg.APIPort)
	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.Equal(t, int64(32<<20), cfg.MaxUploadBytes)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateServer())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("INGEST_ENDPOINT", "https://ingest.example.com")
	t.Setenv("INGEST_TIMEOUT", "5s")
	t.Setenv("INGEST_RATE", "2.5")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://ingest.example.com", cfg.IngestEndpoint)
	assert.Equal(t, 5*time.Second, cfg.IngestTimeout)
	assert.Equal(t, 2.5, cfg.IngestRate)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
}

func TestLoadDotenvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is already set, even to ""
	os.Unsetenv("INGEST_TOKEN")
	os.Unsetenv("FILE_EXTENSION")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("INGEST_TOKEN=secret\nFILE_EXTENSION=.eml\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.IngestToken)
	assert.Equal(t, ".eml", cfg.FileExtension)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			IngestEndpoint: "http://localhost:9000",
			IngestTimeout:  time.Second,
			FileExtension:  ".msg",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "Missing endpoint", mutate: func(c *Config) { c.IngestEndpoint = "" }, field: "INGEST_ENDPOINT", wantErr: true},
		{name: "Non-http endpoint", mutate: func(c *Config) { c.IngestEndpoint = "ftp://x" }, field: "INGEST_ENDPOINT", wantErr: true},
		{name: "Zero timeout", mutate: func(c *Config) { c.IngestTimeout = 0 }, field: "INGEST_TIMEOUT", wantErr: true},
		{name: "Negative rate", mutate: func(c *Config) { c.IngestRate = -1 }, field: "INGEST_RATE", wantErr: true},
		{name: "Empty extension", mutate: func(c *Config) { c.FileExtension = "" }, field: "FILE_EXTENSION", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		field   string
		wantErr bool
	}{
		{name: "SQLite", cfg: Config{StorageType: "sqlite", MaxUploadBytes: 1}},
		{name: "Postgres without URL", cfg: Config{StorageType: "postgres", MaxUploadBytes: 1}, field: "POSTGRES_URL", wantErr: true},
		{name: "Unknown storage", cfg: Config{StorageType: "mongo", MaxUploadBytes: 1}, field: "STORAGE_TYPE", wantErr: true},
		{name: "Zero upload limit", cfg: Config{StorageType: "sqlite"}, field: "MAX_UPLOAD_BYTES", wantErr: true},
		{name: "GitHub token without repo", cfg: Config{StorageType: "sqlite", MaxUploadBytes: 1, GitHubToken: "t"}, field: "GITHUB_REPO", wantErr: true},
		{name: "GitHub configured", cfg: Config{StorageType: "sqlite", MaxUploadBytes: 1, GitHubToken: "t", GitHubRepo: "acme/issues"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateServer()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestGitHubOwnerRepo(t *testing.T) {
	tests := []struct {
		in          string
		owner, repo string
		ok          bool
	}{
		{in: "acme/issues", owner: "acme", repo: "issues", ok: true},
		{in: "acme", ok: false},
		{in: "/issues", ok: false},
		{in: "acme/issues/extra", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, repo, ok := (&Config{GitHubRepo: tt.in}).GitHubOwnerRepo()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, (&Config{LogLevel: in}).SlogLevel(), in)
	}
}
