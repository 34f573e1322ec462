package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/tanya/internal/models"
)

// BatchEmbedder is the part of embedding.Embedder that building an index needs.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedChunks returns copies of chunks carrying their embeddings, computed in one batch.
// The input chunks are left untouched.
func EmbedChunks(ctx context.Context, chunks []*models.Chunk, embedder BatchEmbedder) ([]*models.Chunk, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks: %w", models.ErrIndexNotReady)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embs, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, models.Upstream("embedding", err)
	}
	if len(embs) != len(chunks) {
		return nil, fmt.Errorf("got %d embeddings for %d chunks", len(embs), len(chunks))
	}
	out := make([]*models.Chunk, len(chunks))
	for i, c := range chunks {
		cp := *c
		cp.Embedding = embs[i]
		out[i] = &cp
	}
	return out, nil
}

// Build embeds chunks and returns a new index of the given type.
// On any failure no index is returned, so the caller's current index stays in place.
func Build(ctx context.Context, indexType string, chunks []*models.Chunk, embedder BatchEmbedder) (VectorIndex, error) {
	embedded, err := EmbedChunks(ctx, chunks, embedder)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	idx, err := NewVectorIndex(indexType, embedded)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return idx, nil
}
