package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Insert writes the document and runs hook inside the same transaction.
// The row is committed only if hook succeeds.
func (s *DocumentStore) Insert(ctx context.Context, doc *domain.Document, hook driven.InsertHook) error {
	if err := s.db.insertDocument(ctx, doc, hook); err != nil {
		doc.ID = 0
		return err
	}
	return nil
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id int64) (*domain.Document, error) {
	query := `
		SELECT id, filename, text_content, created_at
		FROM pdf_documents
		WHERE id = $1
	`

	var doc domain.Document
	err := s.db.pool.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.Filename,
		&doc.TextContent,
		&doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents newest first with pagination
func (s *DocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT id, filename, text_content, created_at
		FROM pdf_documents
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.pool.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]*domain.Document, 0)
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.TextContent, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Count returns total document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.pool.QueryRowContext(ctx, "SELECT COUNT(*) FROM pdf_documents").Scan(&count)
	return count, err
}

// Ping verifies the database is reachable
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
