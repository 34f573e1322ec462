package models

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultSessionID is used when a chat request names no session.
const DefaultSessionID = "default"

// ChatRequest is one user message in a conversation.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	K         int    `json:"k,omitempty"`
}

// ChatReply is the orchestrator's answer to a ChatRequest.
type ChatReply struct {
	Reply             string            `json:"reply"`
	Citations         []Citation        `json:"citations"`
	Retrieval         *RetrievalSummary `json:"retrieval"`
	SessionID         string            `json:"session_id"`
	UsedClarification bool              `json:"used_clarification"`
	ConfidenceScore   float64           `json:"confidence_score"`
}

// HistoryResponse is the wire form of a session history.
type HistoryResponse struct {
	SessionID string `json:"session_id"`
	History   []Turn `json:"history"`
}

// IndexStatus describes the currently published index.
type IndexStatus struct {
	Ready            bool      `json:"ready"`
	DocumentsIndexed int       `json:"documents_indexed"`
	ChunksIndexed    int       `json:"chunks_indexed"`
	ChunkSize        int       `json:"chunk_size"`
	ChunkOverlap     int       `json:"chunk_overlap"`
	EmbeddingModel   string    `json:"embedding_model_name"`
	Dimensions       int       `json:"embedding_dimensions,omitempty"`
	BuiltAt          time.Time `json:"built_at,omitempty"`
	Skipped          []string  `json:"skipped_files,omitempty"`
}
