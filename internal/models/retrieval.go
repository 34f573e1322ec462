package models

import "time"

// ScoredChunk is a chunk paired with its similarity to a query.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}

// Citation points a reply back to the chunk it was grounded on.
type Citation struct {
	Doc         string  `json:"doc"`
	Snippet     string  `json:"snippet"`
	FullSnippet string  `json:"full_snippet"`
	Score       float64 `json:"similarity_score"`
}

// RetrievalResult is the outcome of a single query against the index.
//
// GroundingScore summarizes how close the query is to the retrieved text. It says
// nothing about whether a composed answer is faithful to that text.
type RetrievalResult struct {
	Query          string        `json:"query"`
	K              int           `json:"k"`
	Hits           []ScoredChunk `json:"-"`
	Citations      []Citation    `json:"citations"`
	GroundingScore float64       `json:"grounding_score"`
	Latency        time.Duration `json:"-"`
}

// ChunkTexts returns the full text of every hit, in rank order.
func (r *RetrievalResult) ChunkTexts() []string {
	texts := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		texts[i] = h.Chunk.Text
	}
	return texts
}

// Summary returns the wire form of the retrieval metadata.
func (r *RetrievalResult) Summary() *RetrievalSummary {
	g := r.GroundingScore
	return &RetrievalSummary{
		K:              r.K,
		LatencyMs:      r.Latency.Milliseconds(),
		GroundingScore: &g,
	}
}

// RetrievalSummary is the retrieval block attached to ask and chat replies.
// GroundingScore is nil when no retrieval took place.
type RetrievalSummary struct {
	K              int      `json:"k"`
	LatencyMs      int64    `json:"latency_ms"`
	GroundingScore *float64 `json:"grounding_score"`
}

// AskRequest is a single-turn question.
type AskRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// AskResponse is the single-turn answer: the retrieved text joined together.
type AskResponse struct {
	Answer    string            `json:"answer"`
	Citations []Citation        `json:"citations"`
	Retrieval *RetrievalSummary `json:"retrieval"`
}

// NewAskResponse pairs a single-turn answer with the retrieval it was composed from.
func NewAskResponse(r *RetrievalResult, answer string) *AskResponse {
	return &AskResponse{
		Answer:    answer,
		Citations: r.Citations,
		Retrieval: r.Summary(),
	}
}
