// Package models defines core data structures for documents, chunks, retrieval results, and sessions.
package models

// Document is one source text loaded from the corpus directory.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Chunk is a contiguous window of a document's words, used for semantic indexing.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
}
