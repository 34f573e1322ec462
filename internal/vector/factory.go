package vector

import (
	"fmt"

	"github.com/hyperjump/tanya/internal/models"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses exact brute-force search. Fine for corpora of a few thousand chunks.
	IndexTypeMemory IndexType = "memory"
)

// NewVectorIndex creates a vector index of the specified type over chunks.
// Supported types: "memory" (default).
func NewVectorIndex(indexType string, chunks []*models.Chunk) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(chunks)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory)", indexType)
	}
}
