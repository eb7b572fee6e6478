package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory VectorIndex for testing.
// Search returns entries in insertion order, not by similarity.
type MockVectorIndex struct {
	mu       sync.RWMutex
	entries  []domain.IndexEntry
	meta     domain.IndexMetadata
	built    bool
	failNext bool
	rebuilds int
	SearchFn func(query []float32, k int) ([]*domain.RetrievedChunk, error)
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

func (m *MockVectorIndex) Rebuild(ctx context.Context, meta domain.IndexMetadata, entries []domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return errors.New("disk full")
	}
	m.entries = append([]domain.IndexEntry(nil), entries...)
	m.meta = meta
	m.built = true
	m.rebuilds++
	return nil
}

func (m *MockVectorIndex) Load(ctx context.Context) (driven.IndexSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.built {
		return nil, domain.ErrNoIndex
	}
	return &mockSnapshot{
		entries:  append([]domain.IndexEntry(nil), m.entries...),
		meta:     m.meta,
		searchFn: m.SearchFn,
	}, nil
}

func (m *MockVectorIndex) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.built = false
	return nil
}

func (m *MockVectorIndex) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.built
}

// Helper methods for testing

func (m *MockVectorIndex) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

// Rebuilds returns how many successful rebuilds happened
func (m *MockVectorIndex) Rebuilds() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rebuilds
}

// Contents returns the chunk texts currently indexed
func (m *MockVectorIndex) Contents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Chunk.Content
	}
	return out
}

type mockSnapshot struct {
	entries  []domain.IndexEntry
	meta     domain.IndexMetadata
	searchFn func(query []float32, k int) ([]*domain.RetrievedChunk, error)
}

func (s *mockSnapshot) Search(query []float32, k int) ([]*domain.RetrievedChunk, error) {
	if s.searchFn != nil {
		return s.searchFn(query, k)
	}
	if k > len(s.entries) {
		k = len(s.entries)
	}
	out := make([]*domain.RetrievedChunk, 0, k)
	for _, e := range s.entries[:k] {
		out = append(out, &domain.RetrievedChunk{Position: e.Chunk.Position, Content: e.Chunk.Content, Score: 1})
	}
	return out, nil
}

func (s *mockSnapshot) Len() int {
	return len(s.entries)
}

func (s *mockSnapshot) Metadata() domain.IndexMetadata {
	return s.meta
}
