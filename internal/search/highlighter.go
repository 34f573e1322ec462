package search

import (
	"strings"

	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/pkg/utils"
)

// Citations builds one citation per hit, with a snippet of the first snippetLen characters.
func Citations(hits []models.ScoredChunk, snippetLen int) []models.Citation {
	out := make([]models.Citation, len(hits))
	for i, h := range hits {
		out[i] = models.Citation{
			Doc:         h.Chunk.DocumentID,
			Snippet:     utils.Prefix(h.Chunk.Text, snippetLen),
			FullSnippet: h.Chunk.Text,
			Score:       h.Score,
		}
	}
	return out
}

// ComposeExtractive answers with the retrieved text itself, joined in rank order.
func ComposeExtractive(r *models.RetrievalResult) string {
	return strings.Join(r.ChunkTexts(), " ")
}
