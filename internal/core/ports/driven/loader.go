package driven

import "context"

// DocumentLoader extracts raw text from a stored file. Format-specific
// extraction (PDF, DOCX, and friends) is a black box behind this port:
// the pipeline only ever sees the extracted text.
type DocumentLoader interface {
	// Load returns the extracted text and a page count hint.
	// Unsupported or corrupt files fail with domain.ErrDocumentLoad.
	Load(ctx context.Context, path string) (text string, pages int, err error)

	// Supports reports whether the loader handles the file extension.
	Supports(ext string) bool
}

// FileStorage locates and removes uploaded files.
type FileStorage interface {
	// Save writes an uploaded file and returns its storage path.
	Save(ctx context.Context, projectID, filename string, data []byte) (string, error)

	// Remove deletes a stored file. Removing a missing file is not an error.
	Remove(ctx context.Context, path string) error
}
