// Package indexer loads the corpus, splits it into chunks and publishes the vector index.
package indexer

import (
	"fmt"
	"strings"

	"github.com/hyperjump/tanya/internal/models"
)

// Chunker splits text into overlapping word-based chunks.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
// The overlap must be at least 0 and strictly less than the size; bad values are
// reported as a *models.ConfigError, never clamped.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, &models.ConfigError{Field: "chunking.size", Reason: fmt.Sprintf("must be positive, got %d", chunkSize)}
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, &models.ConfigError{
			Field:  "chunking.overlap",
			Reason: fmt.Sprintf("must be in [0, %d), got %d", chunkSize, chunkOverlap),
		}
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Size returns the window size in words.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the number of words shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.chunkOverlap }

// Chunk splits doc into windows of at most size words, each starting overlap words
// before the end of the previous one. A document no longer than size words yields
// one chunk holding the whole normalized text. Chunk IDs are "<doc>#<index>".
func (c *Chunker) Chunk(doc *models.Document) []*models.Chunk {
	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]*models.Chunk, 0, len(words)/(c.chunkSize-c.chunkOverlap)+1)
	step := c.chunkSize - c.chunkOverlap
	for i := 0; i < len(words); i += step {
		end := i + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		index := len(chunks)
		chunks = append(chunks, &models.Chunk{
			ID:         fmt.Sprintf("%s#%d", doc.ID, index),
			DocumentID: doc.ID,
			ChunkIndex: index,
			Text:       strings.Join(words[i:end], " "),
		})
		if end >= len(words) {
			break
		}
	}
	return chunks
}

// ChunkAll chunks every document in order.
func (c *Chunker) ChunkAll(docs []*models.Document) []*models.Chunk {
	var all []*models.Chunk
	for _, d := range docs {
		all = append(all, c.Chunk(d)...)
	}
	return all
}
