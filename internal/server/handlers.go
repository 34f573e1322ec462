package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/search"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
	UptimeSeconds    float64   `json:"uptime_seconds"`
	IndexReady       bool      `json:"index_ready"`
	DocumentsIndexed int       `json:"documents_indexed"`
	ChunksIndexed    int       `json:"chunks_indexed"`
	EmbeddingModel   string    `json:"embedding_model"`
	ChunkSize        int       `json:"chunk_size"`
	ChunkOverlap     int       `json:"chunk_overlap"`
	SessionsBackend  string    `json:"sessions_backend"`
	SessionsDBBytes  *int64    `json:"sessions_db_bytes,omitempty"`
	Version          string    `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.indexer.Status()
	resp := healthResponse{
		Status:           "healthy",
		Timestamp:        time.Now().UTC(),
		UptimeSeconds:    float64(time.Since(s.started).Milliseconds()) / 1000,
		IndexReady:       st.Ready,
		DocumentsIndexed: st.DocumentsIndexed,
		ChunksIndexed:    st.ChunksIndexed,
		EmbeddingModel:   st.EmbeddingModel,
		ChunkSize:        st.ChunkSize,
		ChunkOverlap:     st.ChunkOverlap,
		SessionsBackend:  s.config.Sessions.Backend,
		Version:          s.version,
	}
	if sized, ok := s.sessions.(interface{ SizeBytes() (int64, error) }); ok {
		if n, err := sized.SizeBytes(); err == nil {
			resp.SessionsDBBytes = &n
		}
	}
	status := http.StatusOK
	if !st.Ready {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.K == 0 {
		req.K = s.engine.DefaultK()
	}
	s.logger.Debug("ask request", zap.Int("k", req.K))
	result, err := s.engine.Retrieve(r.Context(), s.masker.Mask(req.Query), req.K)
	if err != nil {
		s.fail(w, "ask", err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewAskResponse(result, search.ComposeExtractive(result)))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("chat request", zap.String("session_id", req.SessionID), zap.Int("k", req.K))
	reply, err := s.agent.Chat(r.Context(), req)
	if err != nil {
		s.fail(w, "chat", err)
		return
	}
	s.respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Dialogue.MaxHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	resp, err := s.agent.History(r.Context(), chi.URLParam(r, "session_id"), limit)
	if err != nil {
		s.fail(w, "history", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	s.logger.Debug("clear history request", zap.String("session_id", id))
	if err := s.agent.ClearHistory(r.Context(), id); err != nil {
		s.fail(w, "clear history", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "success", "session_id": id})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.agent.Sessions(r.Context())
	if err != nil {
		s.fail(w, "list sessions", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": ids})
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.indexer.Status())
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("index rebuild requested")
	status, err := s.indexer.Build(r.Context())
	if err != nil {
		s.fail(w, "rebuild", err)
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
