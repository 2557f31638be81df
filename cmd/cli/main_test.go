package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
)

// execute runs the root command with args and returns its output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, outputJSON, endpoint, extension, token, failOnError = "", false, "", "", "", false
	t.Setenv("INGEST_ENDPOINT", "")
	t.Setenv("FILE_EXTENSION", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mailbox(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "mailbox")
	require.NoError(t, os.MkdirAll(root, 0o755))
	for name, content := range map[string]string{
		"a.msg":     "alpha",
		"b.msg":     "bad",
		"c.msg":     "gamma",
		"notes.txt": "skip",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

// fakeService rejects the file named b.msg and accepts every other upload
func fakeService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if err != nil || header.Filename == "b.msg" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"issue_id": "ISSUE-" + header.Filename})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestCommand(t *testing.T) {
	srv := fakeService(t)

	out, err := execute(t, "ingest", mailbox(t), "--endpoint", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "Ingesting 3 files from mailbox")
	assert.Contains(t, out, "Skipped 1 files without the .msg extension")
	assert.Contains(t, out, "[1/3] a.msg: Success - Issue ID: ISSUE-a.msg")
	assert.Contains(t, out, "[2/3] b.msg: Error: failed to upload b.msg: 500 Internal Server Error")
	assert.Contains(t, out, "[3/3] c.msg: Success - Issue ID: ISSUE-c.msg")
	assert.Contains(t, out, "Ingested 2 of 3 files (1 failed)")
}

func TestIngestCommandJSON(t *testing.T) {
	srv := fakeService(t)

	out, err := execute(t, "ingest", mailbox(t), "--endpoint", srv.URL, "--json")
	require.NoError(t, err)

	var result domain.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []domain.OutcomeRecord{
		domain.Succeeded("a.msg", "ISSUE-a.msg"),
		domain.Failed("b.msg", "failed to upload b.msg: 500 Internal Server Error"),
		domain.Succeeded("c.msg", "ISSUE-c.msg"),
	}, result.Records)
}

func TestIngestCommandFailOnError(t *testing.T) {
	srv := fakeService(t)

	_, err := execute(t, "ingest", mailbox(t), "--endpoint", srv.URL, "--fail-on-error")

	require.Error(t, err)
	assert.Equal(t, "1 of 3 files failed to ingest", err.Error())
}

func TestIngestCommandNothingSelected(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	out, err := execute(t, "ingest", root, "--endpoint", "http://127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, out, "No .msg files found")
}

func TestIngestCommandNothingSelectedJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	out, err := execute(t, "ingest", root, "--endpoint", "http://127.0.0.1:0", "--json")
	require.NoError(t, err)

	var result struct {
		Results []domain.OutcomeRecord `json:"results"`
		Skipped int                    `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
	assert.Equal(t, 1, result.Skipped)
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list", mailbox(t))

	require.NoError(t, err)
	assert.Contains(t, out, "Folder: mailbox")
	assert.Contains(t, out, "Selected Files (3):")
	assert.Contains(t, out, "a.msg")
	assert.NotContains(t, out, "notes.txt")
}

func TestListCommandCustomExtension(t *testing.T) {
	out, err := execute(t, "list", mailbox(t), "--ext", ".txt", "--json")
	require.NoError(t, err)

	var listing struct {
		Files   []string `json:"files"`
		Skipped int      `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	assert.Equal(t, []string{"notes.txt"}, listing.Files)
	assert.Equal(t, 3, listing.Skipped)
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	out, err := execute(t, "health", "--endpoint", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "is healthy")
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	renderResults(&buf, domain.BatchResult{Records: []domain.OutcomeRecord{
		domain.Succeeded("a.msg", "ISSUE-1"),
		domain.Failed("b.msg", "failed to upload b.msg"),
	}})

	out := buf.String()
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "Issue ID: ISSUE-1")
	assert.Contains(t, out, "Error: failed to upload b.msg")
	assert.Contains(t, out, "success")
	assert.NotContains(t, out, "#")
}
