package vector

import (
	"context"
	"sync/atomic"

	"github.com/hyperjump/tanya/internal/models"
)

type published struct {
	idx VectorIndex
}

// Holder publishes the current index to concurrent readers. Readers see either the
// index before a Swap or the one after it, never a partial build.
type Holder struct {
	current atomic.Pointer[published]
}

// NewHolder returns a holder with no index; it is not ready until the first Swap.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the published index, or nil before the first Swap.
func (h *Holder) Current() VectorIndex {
	p := h.current.Load()
	if p == nil {
		return nil
	}
	return p.idx
}

// Swap publishes idx and returns the index it replaced.
func (h *Holder) Swap(idx VectorIndex) VectorIndex {
	old := h.current.Swap(&published{idx: idx})
	if old == nil {
		return nil
	}
	return old.idx
}

// Ready reports whether a non-empty index is published.
func (h *Holder) Ready() bool {
	idx := h.Current()
	return idx != nil && idx.Size() > 0
}

// Search runs query against the current index. It fails with models.ErrIndexNotReady
// while no non-empty index is published.
func (h *Holder) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	idx := h.Current()
	if idx == nil || idx.Size() == 0 {
		return nil, models.ErrIndexNotReady
	}
	return idx.Search(ctx, query, k)
}

// Size returns the number of chunks in the current index.
func (h *Holder) Size() int {
	if idx := h.Current(); idx != nil {
		return idx.Size()
	}
	return 0
}

// Dimensions returns the embedding length of the current index.
func (h *Holder) Dimensions() int {
	if idx := h.Current(); idx != nil {
		return idx.Dimensions()
	}
	return 0
}
