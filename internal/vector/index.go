// Package vector provides the chunk index and similarity search.
package vector

import (
	"context"

	"github.com/hyperjump/tanya/internal/models"
)

// VectorIndex is a read-only set of embedded chunks answering top-k similarity queries.
type VectorIndex interface {
	// Search returns at most k chunks by descending similarity to query.
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	Size() int
	Dimensions() int
}
