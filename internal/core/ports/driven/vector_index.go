package driven

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// VectorIndex owns the single on-disk index slot.
// Rebuild and Load are mutually excluded by the implementation.
type VectorIndex interface {
	// Rebuild replaces the persisted index with entries.
	// Prior files that cannot be removed are renamed aside.
	Rebuild(ctx context.Context, meta domain.IndexMetadata, entries []domain.IndexEntry) error

	// Load reads the persisted index.
	// Returns domain.ErrNoIndex when nothing was built and domain.ErrIndexCorrupt
	// when the files cannot be decoded.
	Load(ctx context.Context) (IndexSnapshot, error)

	// Reset wipes the index directory and recreates it empty
	Reset(ctx context.Context) error

	// Exists reports whether an index is currently persisted
	Exists() bool
}

// IndexSnapshot is a loaded, read-only copy of the index
type IndexSnapshot interface {
	// Search returns up to k chunks ordered by decreasing similarity
	Search(query []float32, k int) ([]*domain.RetrievedChunk, error)

	// Len returns the number of indexed chunks
	Len() int

	// Metadata describes how the index was built
	Metadata() domain.IndexMetadata
}
