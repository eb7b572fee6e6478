package services

import (
	"context"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(documentStore driven.DocumentStore) driving.DocumentService {
	return &documentService{
		documentStore: documentStore,
	}
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id int64) (*domain.Document, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.documentStore.Get(ctx, id)
}

// List returns document summaries newest first
func (s *documentService) List(ctx context.Context, limit, offset int) ([]*domain.DocumentSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := s.documentStore.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.DocumentSummary, len(docs))
	for i, doc := range docs {
		summaries[i] = doc.Summary()
	}
	return summaries, nil
}

// Count returns the total number of documents
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documentStore.Count(ctx)
}
