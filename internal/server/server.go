// Package server provides the HTTP API for tanya.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/tanya/internal/agent"
	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/indexer"
	"github.com/hyperjump/tanya/internal/pii"
	"github.com/hyperjump/tanya/internal/search"
	"github.com/hyperjump/tanya/internal/session"
	"github.com/hyperjump/tanya/pkg/utils"
	"go.uber.org/zap"
)

// Server is the HTTP server for the tanya API.
type Server struct {
	engine   *search.Engine
	agent    *agent.Agent
	indexer  *indexer.Indexer
	sessions session.Store
	masker   pii.Masker
	config   *config.Config
	logger   *zap.Logger
	version  string
	started  time.Time
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	ag *agent.Agent,
	idx *indexer.Indexer,
	sessions session.Store,
	cfg *config.Config,
	logger *zap.Logger,
	version string,
) *Server {
	return &Server{
		engine:   engine,
		agent:    ag,
		indexer:  idx,
		sessions: sessions,
		masker:   pii.New(&cfg.PII),
		config:   cfg,
		logger:   utils.OrNop(logger),
		version:  version,
		started:  time.Now(),
	}
}

// Router builds the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if d := s.config.Server.RequestTimeout(); d > 0 {
		r.Use(middleware.Timeout(d))
	}

	r.Get("/healthz", s.handleHealth)
	r.Post("/ask", s.handleAsk)

	r.Route("/agent", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/history/{session_id}", s.handleHistory)
		r.Delete("/history/{session_id}", s.handleClearHistory)
		r.Get("/sessions", s.handleSessions)
	})

	r.Route("/api/v1/index", func(r chi.Router) {
		r.Get("/", s.handleIndexStatus)
		r.Post("/rebuild", s.handleRebuild)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
