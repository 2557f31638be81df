package domain

import (
	"io"
	"os"
	"path/filepath"
)

// FileHandle is a read-only reference to a file selected for submission
type FileHandle interface {
	// Name returns the file name reported to the ingestion service
	Name() string

	// Open returns a reader over the file's binary payload
	Open() (io.ReadCloser, error)
}

// LocalFile is a FileHandle backed by the local filesystem
type LocalFile struct {
	Path    string // path used to open the file
	RelPath string // path relative to the selected folder, slash separated
}

// NewLocalFile creates a LocalFile for path, relative to root
func NewLocalFile(root, path string) (*LocalFile, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return nil, err
	}
	return &LocalFile{
		Path:    path,
		RelPath: filepath.ToSlash(rel),
	}, nil
}

// Name returns the base name of the file
func (f *LocalFile) Name() string {
	return filepath.Base(f.Path)
}

// Open opens the file for reading
func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// SubmissionRequest wraps a single file for transport
type SubmissionRequest struct {
	FileName string
	Content  []byte
}

// SubmissionResponse is the structured answer of a successful submission
type SubmissionResponse struct {
	IssueID string `json:"issue_id"`
}
