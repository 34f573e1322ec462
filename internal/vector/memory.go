package vector

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/tanya/internal/models"
)

// MemoryIndex is an immutable brute-force cosine index. It is safe for concurrent
// searches because nothing mutates it after NewMemoryIndex returns.
type MemoryIndex struct {
	dimensions int
	chunks     []*models.Chunk
	norms      []float64
}

// NewMemoryIndex indexes chunks in the given order. Every chunk must carry an
// embedding of the same, non-zero length. An empty chunk set gives an empty index
// that answers every search with models.ErrIndexNotReady.
func NewMemoryIndex(chunks []*models.Chunk) (*MemoryIndex, error) {
	m := &MemoryIndex{
		chunks: make([]*models.Chunk, len(chunks)),
		norms:  make([]float64, len(chunks)),
	}
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		if i == 0 {
			m.dimensions = len(c.Embedding)
		} else if len(c.Embedding) != m.dimensions {
			return nil, fmt.Errorf("chunk %s: dimension mismatch: got %d, expected %d", c.ID, len(c.Embedding), m.dimensions)
		}
		m.chunks[i] = c
		m.norms[i] = L2Norm(c.Embedding)
	}
	return m, nil
}

// Type returns the index type identifier.
func (m *MemoryIndex) Type() string {
	return string(IndexTypeMemory)
}

// Search scores every chunk against query and returns the top k.
// Equal scores keep insertion order. k larger than Size returns everything.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, &models.ValidationError{Field: "k", Reason: fmt.Sprintf("must be positive, got %d", k)}
	}
	if len(m.chunks) == 0 {
		return nil, models.ErrIndexNotReady
	}
	if len(query) != m.dimensions {
		return nil, &models.ValidationError{
			Field:  "query",
			Reason: fmt.Sprintf("dimension mismatch: got %d, expected %d", len(query), m.dimensions),
		}
	}

	qNorm := L2Norm(query)
	scored := make([]models.ScoredChunk, len(m.chunks))
	for i, c := range m.chunks {
		scored[i] = models.ScoredChunk{Chunk: c, Score: cosine(query, c.Embedding, qNorm, m.norms[i])}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Size returns the number of indexed chunks.
func (m *MemoryIndex) Size() int {
	return len(m.chunks)
}

// Dimensions returns the embedding length shared by all chunks, 0 when empty.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}
