// Package storage provides filesystem-backed upload storage.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// Ensure Local implements FileStorage
var _ driven.FileStorage = (*Local)(nil)

// Local stores uploaded files under a base directory, one
// subdirectory per project.
type Local struct {
	baseDir string
}

// NewLocal creates local file storage rooted at baseDir. The
// directory is created if it does not exist.
func NewLocal(baseDir string) (*Local, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Local{baseDir: baseDir}, nil
}

// Save writes data to <baseDir>/<projectID>/<filename> and returns
// the absolute path.
func (l *Local) Save(ctx context.Context, projectID, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// filepath.Base strips any directory components smuggled
	// into the name
	filename = filepath.Base(filename)
	if filename == "." || filename == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename")
	}

	dir := filepath.Join(l.baseDir, projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating project directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// Remove deletes a stored file. A missing file is not an error.
func (l *Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}
