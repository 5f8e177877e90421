// Package loader extracts text from uploaded files.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
	"github.com/living-docs/livingdocs-core/internal/core/ports/driven"
)

// charsPerPage approximates the size of a printed page, used for
// the page count hint on formats without real page boundaries.
const charsPerPage = 3000

// Ensure TextLoader implements DocumentLoader
var _ driven.DocumentLoader = (*TextLoader)(nil)

// TextLoader handles plain text formats. The extracted text is the
// file content verbatim, so chunk offsets index directly into the
// original file.
type TextLoader struct{}

// NewTextLoader creates a loader for plain text formats.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Supports reports whether the extension names a plain text format.
func (l *TextLoader) Supports(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt", "md", "markdown", "rst", "log", "csv":
		return true
	}
	return false
}

// Load reads the file and returns its content with a page count hint.
func (l *TextLoader) Load(ctx context.Context, path string) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if !l.Supports(filepath.Ext(path)) {
		return "", 0, fmt.Errorf("%w: unsupported format %q", domain.ErrDocumentLoad, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrDocumentLoad, err)
	}

	if !utf8.Valid(data) {
		return "", 0, fmt.Errorf("%w: file is not valid UTF-8", domain.ErrDocumentLoad)
	}

	text := string(data)
	pages := len(text)/charsPerPage + 1
	return text, pages, nil
}
