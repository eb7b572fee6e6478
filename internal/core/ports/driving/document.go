package driving

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// DocumentService provides read-only access to uploaded documents
type DocumentService interface {
	// Get retrieves a document by ID
	Get(ctx context.Context, id int64) (*domain.Document, error)

	// List returns document summaries newest first
	List(ctx context.Context, limit, offset int) ([]*domain.DocumentSummary, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)
}
