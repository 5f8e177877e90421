// Package chunker splits document text into fixed-size overlapping pieces
// while preserving exact source offsets. Offsets are taken directly from
// the slicing positions, never recomputed by substring search: a citation
// is only trustworthy if its offsets cannot match the wrong occurrence.
package chunker

import (
	"fmt"

	"github.com/living-docs/livingdocs-core/internal/core/domain"
)

// Piece is one chunk of text with its absolute offsets in the original
// document text (inclusive-exclusive).
type Piece struct {
	Content       string
	SequenceIndex int
	StartOffset   int
	EndOffset     int
}

// Config holds chunking parameters.
type Config struct {
	// ChunkSize is the window length in bytes of the source text.
	ChunkSize int

	// Overlap is how many bytes consecutive chunks share.
	Overlap int
}

// DefaultConfig returns the standard chunking parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 1000,
		Overlap:   200,
	}
}

// Validate checks the chunk size and overlap preconditions.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfiguration, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, chunk size), got %d for chunk size %d",
			domain.ErrInvalidConfiguration, c.Overlap, c.ChunkSize)
	}
	return nil
}

// Split advances a window of length cfg.ChunkSize across text with stride
// chunkSize-overlap and emits one Piece per window. The final piece is
// truncated to the end of text and is never dropped, even when shorter
// than the overlap. Empty text yields an empty slice, not an error.
//
// Split is deterministic and side-effect free: identical input always
// yields byte-identical pieces, which is what makes reprocessing
// idempotent.
func Split(text string, cfg Config) ([]Piece, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(text) == 0 {
		return []Piece{}, nil
	}

	stride := cfg.ChunkSize - cfg.Overlap
	pieces := make([]Piece, 0, (len(text)+stride-1)/stride)

	for start, seq := 0, 0; start < len(text); start, seq = start+stride, seq+1 {
		end := start + cfg.ChunkSize
		if end > len(text) {
			end = len(text)
		}

		pieces = append(pieces, Piece{
			Content:       text[start:end],
			SequenceIndex: seq,
			StartOffset:   start,
			EndOffset:     end,
		})

		if end == len(text) {
			break
		}
	}

	return pieces, nil
}
