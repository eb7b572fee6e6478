package driven

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// InsertHook runs inside the insert transaction after the row is written.
// Returning an error rolls the insert back.
type InsertHook func(ctx context.Context, doc *domain.Document) error

// DocumentStore handles document persistence (PostgreSQL or in-memory).
// Documents are append-only.
type DocumentStore interface {
	// Insert appends a document and assigns its ID and CreatedAt.
	// If hook is non-nil it runs before commit; a hook error aborts the insert.
	Insert(ctx context.Context, doc *domain.Document, hook InsertHook) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// List returns documents newest first with pagination
	List(ctx context.Context, limit, offset int) ([]*domain.Document, error)

	// Count returns total document count
	Count(ctx context.Context) (int, error)

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error
}
