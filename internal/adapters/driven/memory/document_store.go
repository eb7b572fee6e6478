// Package memory provides process-local adapters used when no database or
// Redis URL is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents in insertion order.
// Inserts are serialised so the hook sees the same ordering Postgres would give.
type DocumentStore struct {
	mu     sync.RWMutex
	insert sync.Mutex
	docs   []*domain.Document
	nextID int64
	now    func() time.Time
}

// NewDocumentStore creates an empty store
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{nextID: 1, now: time.Now}
}

// Insert assigns an ID and CreatedAt, runs hook, and only then makes the
// document visible. A hook error leaves the store unchanged.
func (s *DocumentStore) Insert(ctx context.Context, doc *domain.Document, hook driven.InsertHook) error {
	s.insert.Lock()
	defer s.insert.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	id := s.nextID
	s.mu.RUnlock()

	doc.ID = id
	doc.CreatedAt = s.now().UTC()

	if hook != nil {
		if err := hook(ctx, doc); err != nil {
			doc.ID = 0
			doc.CreatedAt = time.Time{}
			return err
		}
	}

	stored := *doc
	s.mu.Lock()
	s.docs = append(s.docs, &stored)
	s.nextID++
	s.mu.Unlock()
	return nil
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id int64) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.docs {
		if doc.ID == id {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns documents newest first
func (s *DocumentStore) List(ctx context.Context, limit, offset int) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	out := make([]*domain.Document, 0)
	for i := len(s.docs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		cp := *s.docs[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Count returns total document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Ping always succeeds
func (s *DocumentStore) Ping(ctx context.Context) error {
	return nil
}
