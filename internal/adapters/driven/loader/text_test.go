package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestSupports(t *testing.T) {
	l := NewTextLoader()

	for _, ext := range []string{".txt", ".md", "md", ".MD", ".markdown", ".csv"} {
		if !l.Supports(ext) {
			t.Errorf("Supports(%q) = false, want true", ext)
		}
	}
	for _, ext := range []string{".pdf", ".docx", ".exe", ""} {
		if l.Supports(ext) {
			t.Errorf("Supports(%q) = true, want false", ext)
		}
	}
}

func TestLoadReturnsVerbatimContent(t *testing.T) {
	l := NewTextLoader()
	content := "# Title\n\nSome body text with offsets that must survive.\n"
	path := writeTempFile(t, "doc.md", []byte(content))

	text, pages, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if text != content {
		t.Errorf("text = %q, want verbatim file content", text)
	}
	if pages != 1 {
		t.Errorf("pages = %d, want 1", pages)
	}
}

func TestLoadPageCountHint(t *testing.T) {
	l := NewTextLoader()
	path := writeTempFile(t, "big.txt", []byte(strings.Repeat("a", 7000)))

	_, pages, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	l := NewTextLoader()
	path := writeTempFile(t, "doc.pdf", []byte("%PDF-1.4"))

	if _, _, err := l.Load(context.Background(), path); !errors.Is(err, domain.ErrDocumentLoad) {
		t.Errorf("expected ErrDocumentLoad, got %v", err)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	l := NewTextLoader()

	_, _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, domain.ErrDocumentLoad) {
		t.Errorf("expected ErrDocumentLoad, got %v", err)
	}
}

func TestLoadRejectsBinaryContent(t *testing.T) {
	l := NewTextLoader()
	path := writeTempFile(t, "binary.txt", []byte{0xff, 0xfe, 0x00, 0x80})

	if _, _, err := l.Load(context.Background(), path); !errors.Is(err, domain.ErrDocumentLoad) {
		t.Errorf("expected ErrDocumentLoad for invalid UTF-8, got %v", err)
	}
}
