package fsindex

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IndexSnapshot = (*Snapshot)(nil)

// Snapshot is an in-memory copy of the index searched by brute-force cosine similarity.
type Snapshot struct {
	meta    domain.IndexMetadata
	dim     int
	vectors [][]float32
	norms   []float64
	chunks  []domain.Chunk
}

func newSnapshot(meta domain.IndexMetadata, dim int, vectors [][]float32, chunks []domain.Chunk) *Snapshot {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = norm(v)
	}
	return &Snapshot{
		meta:    meta,
		dim:     dim,
		vectors: vectors,
		norms:   norms,
		chunks:  chunks,
	}
}

// Search returns up to k chunks ordered by decreasing cosine similarity.
// Ties keep document order.
func (s *Snapshot) Search(query []float32, k int) ([]*domain.RetrievedChunk, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrInvalidInput, len(query), s.dim)
	}
	if k <= 0 || len(s.vectors) == 0 {
		return []*domain.RetrievedChunk{}, nil
	}

	qn := norm(query)
	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		var dot float64
		for j := range v {
			dot += float64(v[j]) * float64(query[j])
		}
		score := 0.0
		if qn > 0 && s.norms[i] > 0 {
			score = dot / (qn * s.norms[i])
		}
		results[i] = scored{idx: i, score: score}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	if k > len(results) {
		k = len(results)
	}
	out := make([]*domain.RetrievedChunk, k)
	for i := 0; i < k; i++ {
		c := s.chunks[results[i].idx]
		out[i] = &domain.RetrievedChunk{
			Position: c.Position,
			Content:  c.Content,
			Score:    float32(results[i].score),
		}
	}
	return out, nil
}

// Len returns the number of indexed chunks
func (s *Snapshot) Len() int {
	return len(s.vectors)
}

// Metadata describes how the index was built
func (s *Snapshot) Metadata() domain.IndexMetadata {
	return s.meta
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
