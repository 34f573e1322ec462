package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyperjump/tanya/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ask", func(w http.ResponseWriter, r *http.Request) {
		var req models.AskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Query == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"query: must not be empty"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.AskResponse{
			Answer:    "Room rent capped at 1% of sum insured.",
			Citations: []models.Citation{{Doc: "policy_101.txt", Score: 0.8}},
			Retrieval: &models.RetrievalSummary{K: req.K},
		})
	})
	mux.HandleFunc("/agent/chat", func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(models.ChatReply{Reply: "echo: " + req.Message, SessionID: req.SessionID})
	})
	mux.HandleFunc("/agent/history/s1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"status":"success","session_id":"s1"}`))
		default:
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			_ = json.NewEncoder(w).Encode(models.HistoryResponse{
				SessionID: "s1",
				History:   []models.Turn{{Role: models.RoleUser, Text: "hi"}, {Role: models.RoleAssistant, Text: "hello"}},
			})
		}
	})
	mux.HandleFunc("/agent/sessions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sessions":["a","b"]}`))
	})
	mux.HandleFunc("/api/v1/index/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.IndexStatus{Ready: true, DocumentsIndexed: 3})
	})
	mux.HandleFunc("/api/v1/index/rebuild", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewEncoder(w).Encode(models.IndexStatus{Ready: true, DocumentsIndexed: 4})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy","index_ready":false,"version":"dev"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", 5*time.Second)
	ctx := context.Background()

	ask, err := c.Ask(ctx, "room rent", 2)
	require.NoError(t, err)
	assert.Equal(t, "policy_101.txt", ask.Citations[0].Doc)
	assert.Equal(t, 2, ask.Retrieval.K)

	reply, err := c.Chat(ctx, models.ChatRequest{Message: "hi", SessionID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", reply.Reply)
	assert.Equal(t, "u1", reply.SessionID)

	hist, err := c.History(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Len(t, hist.History, 2)
	require.NoError(t, c.ClearHistory(ctx, "s1"))

	sessions, err := c.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sessions)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.DocumentsIndexed)

	st, err = c.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.DocumentsIndexed)
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, 5*time.Second)

	_, err := c.Ask(context.Background(), "", 0)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "query: must not be empty", apiErr.Message)
}

func TestClient_HealthUnavailableKeepsPayload(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, 5*time.Second)

	h, err := c.Health(context.Background())
	require.Error(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "unhealthy", h.Status)
	assert.False(t, h.IndexReady)
	assert.Equal(t, "dev", h.Version)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Status(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
