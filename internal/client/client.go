// Package client talks to a running tanya server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/tanya/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Health is the /healthz payload.
type Health struct {
	Status           string  `json:"status"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
	IndexReady       bool    `json:"index_ready"`
	DocumentsIndexed int     `json:"documents_indexed"`
	ChunksIndexed    int     `json:"chunks_indexed"`
	EmbeddingModel   string  `json:"embedding_model"`
	ChunkSize        int     `json:"chunk_size"`
	ChunkOverlap     int     `json:"chunk_overlap"`
	SessionsBackend  string  `json:"sessions_backend"`
	SessionsDBBytes  *int64  `json:"sessions_db_bytes,omitempty"`
	Version          string  `json:"version"`
}

// Client is a typed client for the tanya HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Ask runs a single-turn question.
func (c *Client) Ask(ctx context.Context, query string, k int) (*models.AskResponse, error) {
	var out models.AskResponse
	if err := c.do(ctx, http.MethodPost, "/ask", models.AskRequest{Query: query, K: k}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends one message of a conversation.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	var out models.ChatReply
	if err := c.do(ctx, http.MethodPost, "/agent/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns the last limit turns of a session; limit <= 0 uses the server default.
func (c *Client) History(ctx context.Context, sessionID string, limit int) (*models.HistoryResponse, error) {
	path := "/agent/history/" + url.PathEscape(sessionID)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out models.HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearHistory forgets a session.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/agent/history/"+url.PathEscape(sessionID), nil, nil)
}

// Sessions lists the sessions with history.
func (c *Client) Sessions(ctx context.Context) ([]string, error) {
	var out struct {
		Sessions []string `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/agent/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// Status describes the server's published index.
func (c *Client) Status(ctx context.Context) (*models.IndexStatus, error) {
	var out models.IndexStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/index/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rebuild asks the server to reindex its corpus.
func (c *Client) Rebuild(ctx context.Context) (*models.IndexStatus, error) {
	var out models.IndexStatus
	if err := c.do(ctx, http.MethodPost, "/api/v1/index/rebuild", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches /healthz. A server whose index is not ready answers 503 with a
// payload; that payload is returned together with the *APIError.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/healthz", nil, &out)
	if err != nil && out.Status == "" {
		return nil, err
	}
	return &out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else if out != nil {
			_ = json.Unmarshal(data, out)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
