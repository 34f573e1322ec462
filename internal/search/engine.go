// Package search turns a question into ranked, cited chunks from the vector index.
package search

import (
	"context"
	"time"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/embedding"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/pkg/utils"
	"go.uber.org/zap"
)

// Index is the read side of the published vector index (see vector.Holder).
type Index interface {
	Ready() bool
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
}

// Engine runs semantic retrieval over the current index.
type Engine struct {
	embedder     embedding.Embedder
	index        Index
	config       config.RetrievalConfig
	embedTimeout time.Duration
	logger       *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for retrieval events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = utils.OrNop(l) }
}

// NewEngine creates a retrieval engine. A zero embedding timeout means no per-call deadline.
func NewEngine(embedder embedding.Embedder, index Index, cfg *config.Config, opts ...EngineOption) *Engine {
	e := &Engine{
		embedder:     embedder,
		index:        index,
		config:       cfg.Retrieval,
		embedTimeout: cfg.Embedding.Timeout(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultK returns the configured number of chunks retrieved when a request names none.
func (e *Engine) DefaultK() int {
	return e.config.DefaultK
}

// Retrieve embeds query, finds the k closest chunks and summarizes them.
//
// The grounding score is the mean similarity of the returned chunks, clamped to
// [-1, 1]. It measures how close the query is to the retrieved text, nothing more:
// it does not check that an answer composed from that text is faithful to it.
//
// Errors: *models.ValidationError for bad input, models.ErrIndexNotReady before the
// first successful build (the embedding service is not called), and
// *models.UpstreamError when embedding fails or exceeds its deadline.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) (*models.RetrievalResult, error) {
	start := time.Now()
	query, err := ProcessQuery(query, k, e.config.MaxKOrDefault())
	if err != nil {
		return nil, err
	}
	if !e.index.Ready() {
		return nil, models.ErrIndexNotReady
	}

	queryEmbedding, err := e.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := e.index.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	result := &models.RetrievalResult{
		Query:          query,
		K:              k,
		Hits:           hits,
		Citations:      Citations(hits, e.config.SnippetLength),
		GroundingScore: utils.Clamp(utils.Mean(scores), -1, 1),
		Latency:        time.Since(start),
	}
	e.logger.Debug("retrieved",
		zap.Int("k", k),
		zap.Int("hits", len(hits)),
		zap.Float64("grounding", result.GroundingScore),
		zap.Duration("latency", result.Latency))
	return result, nil
}

func (e *Engine) embed(ctx context.Context, text string) ([]float32, error) {
	if e.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.embedTimeout)
		defer cancel()
	}
	v, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Warn("query embedding failed", zap.Error(err))
		return nil, models.Upstream("embedding", err)
	}
	return v, nil
}
