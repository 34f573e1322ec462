package session

import (
	"context"
	"sort"
	"sync"

	"github.com/hyperjump/tanya/internal/models"
)

// MemoryStore keeps history in process memory. Each session has its own lock.
type MemoryStore struct {
	sessions sync.Map // string -> *memorySession
}

type memorySession struct {
	mu    sync.Mutex
	turns []models.Turn
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) session(id string) *memorySession {
	if v, ok := s.sessions.Load(id); ok {
		return v.(*memorySession)
	}
	v, _ := s.sessions.LoadOrStore(id, &memorySession{})
	return v.(*memorySession)
}

// History returns a copy of the session's turns.
func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	v, ok := s.sessions.Load(sessionID)
	if !ok {
		return []models.Turn{}, nil
	}
	sess := v.(*memorySession)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]models.Turn, len(sess.turns))
	copy(out, sess.turns)
	return out, nil
}

// Append adds turns under the session's lock.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns ...models.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sess := s.session(sessionID)
	sess.mu.Lock()
	sess.turns = append(sess.turns, turns...)
	sess.mu.Unlock()
	return nil
}

// Clear drops the session's turns.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	v, ok := s.sessions.Load(sessionID)
	if !ok {
		return nil
	}
	sess := v.(*memorySession)
	sess.mu.Lock()
	sess.turns = nil
	sess.mu.Unlock()
	return nil
}

// Sessions lists sessions with history.
func (s *MemoryStore) Sessions(ctx context.Context) ([]string, error) {
	ids := []string{}
	s.sessions.Range(func(k, v interface{}) bool {
		sess := v.(*memorySession)
		sess.mu.Lock()
		n := len(sess.turns)
		sess.mu.Unlock()
		if n > 0 {
			ids = append(ids, k.(string))
		}
		return true
	})
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
