package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/embedding"
	"github.com/hyperjump/tanya/internal/models"
	"github.com/hyperjump/tanya/internal/vector"
	"github.com/hyperjump/tanya/pkg/utils"
	"go.uber.org/zap"
)

// Indexer rebuilds the vector index from the corpus directory and publishes it
// to a vector.Holder. Builds are exclusive; queries keep using the previous index
// until a build succeeds.
type Indexer struct {
	corpus    config.CorpusConfig
	indexType string
	embedder  embedding.Embedder
	holder    *vector.Holder
	chunker   *Chunker
	logger    *zap.Logger

	buildMu sync.Mutex

	// mu covers status and the holder swap together.
	mu     sync.RWMutex
	status models.IndexStatus
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build events (documents loaded, files skipped, index swapped).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = utils.OrNop(l) }
}

// NewIndexer creates an indexer over cfg.Corpus. It fails with a *models.ConfigError
// when the chunking settings are invalid.
func NewIndexer(cfg *config.Config, embedder embedding.Embedder, holder *vector.Holder, opts ...IndexerOption) (*Indexer, error) {
	chunker, err := NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	idx := &Indexer{
		corpus:    cfg.Corpus,
		indexType: cfg.Index.Type,
		embedder:  embedder,
		holder:    holder,
		chunker:   chunker,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.status = models.IndexStatus{
		ChunkSize:      chunker.Size(),
		ChunkOverlap:   chunker.Overlap(),
		EmbeddingModel: embedder.Model(),
	}
	return idx, nil
}

// Build loads the corpus, chunks and embeds it, and swaps the new index in.
// Unreadable or empty files are skipped and listed in the returned status. If no
// chunk could be produced or embedding fails, the published index is left as it was.
func (idx *Indexer) Build(ctx context.Context) (models.IndexStatus, error) {
	idx.buildMu.Lock()
	defer idx.buildMu.Unlock()

	start := time.Now()
	docs, failed := LoadCorpus(idx.corpus.Directory, idx.corpus.Extensions)
	skipped := make([]string, 0, len(failed))
	for _, f := range failed {
		idx.logger.Warn("skipping corpus file", zap.String("path", f.Path), zap.Error(f.Err))
		skipped = append(skipped, f.Path)
	}

	chunks := idx.chunker.ChunkAll(docs)
	built, err := vector.Build(ctx, idx.indexType, chunks, idx.embedder)
	if err != nil {
		idx.logger.Error("index build failed",
			zap.String("directory", idx.corpus.Directory),
			zap.Int("documents", len(docs)),
			zap.Error(err))
		return idx.Status(), fmt.Errorf("build from %s: %w", idx.corpus.Directory, err)
	}
	idx.mu.Lock()
	idx.holder.Swap(built)
	idx.status.DocumentsIndexed = len(docs)
	idx.status.ChunksIndexed = built.Size()
	idx.status.BuiltAt = time.Now().UTC()
	idx.status.Skipped = skipped
	idx.mu.Unlock()

	idx.logger.Info("index built",
		zap.String("directory", idx.corpus.Directory),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", built.Size()),
		zap.Int("skipped", len(skipped)),
		zap.Duration("took", time.Since(start)))
	return idx.Status(), nil
}

// Status describes the published index.
func (idx *Indexer) Status() models.IndexStatus {
	idx.mu.RLock()
	s := idx.status
	current := idx.holder.Current()
	idx.mu.RUnlock()
	if current != nil {
		s.Ready = current.Size() > 0
		s.Dimensions = current.Dimensions()
	}
	if s.Skipped != nil {
		s.Skipped = append([]string(nil), s.Skipped...)
	}
	return s
}

// Directory returns the corpus directory this indexer reads.
func (idx *Indexer) Directory() string {
	return idx.corpus.Directory
}

// Extensions returns the file extensions included in the corpus.
func (idx *Indexer) Extensions() []string {
	return idx.corpus.Extensions
}
