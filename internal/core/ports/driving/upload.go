package driving

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// UploadService stores a PDF and replaces the global index with its chunks
type UploadService interface {
	// Upload validates, extracts, stores and indexes a file.
	// Validation failures leave the index untouched.
	Upload(ctx context.Context, filename string, data []byte) (*domain.UploadResult, error)
}
