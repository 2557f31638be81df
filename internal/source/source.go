// Package source selects the files of a folder that are submitted in one batch.
package source

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/kurihiro0119/msg-ingest/internal/domain"
)

// DefaultExtension is the file suffix selected when none is configured
const DefaultExtension = ".msg"

// Options controls file selection
type Options struct {
	// Extension is the case-sensitive suffix a file name must end with
	Extension string
}

// Selection is the ordered set of files picked from a folder
type Selection struct {
	// Folder is the selected folder hierarchy as shown to the user
	Folder string
	Files  []domain.FileHandle
	// Skipped lists the relative paths of files that did not match
	Skipped []string
}

// Select walks root recursively and returns the files whose name ends with
// the configured extension, in lexical path order
func Select(root string, opts Options) (*Selection, error) {
	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}

	root = filepath.Clean(root)
	sel := &Selection{}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		file, err := domain.NewLocalFile(root, p)
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), ext) {
			sel.Skipped = append(sel.Skipped, file.RelPath)
			return nil
		}
		sel.Files = append(sel.Files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", root, err)
	}

	if len(sel.Files) > 0 {
		first := sel.Files[0].(*domain.LocalFile)
		sel.Folder = path.Join(filepath.Base(root), path.Dir(first.RelPath))
	}

	return sel, nil
}

// Names returns the names of the selected files in order
func (s *Selection) Names() []string {
	names := make([]string, len(s.Files))
	for i, f := range s.Files {
		names[i] = f.Name()
	}
	return names
}
