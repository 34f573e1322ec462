// Package embedding provides text embedding services and caching.
package embedding

import "context"

// Embedder produces fixed-length vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// Model names the embedding model, reported by the index status.
	Model() string
	Close() error
}
