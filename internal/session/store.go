// Package session keeps per-session conversation history.
//
// Unknown session ids behave as empty sessions: History returns no turns and Clear
// is a no-op. Appends to one session are serialized so turns keep the order in
// which Append was called; different sessions never wait on each other.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/models"
)

// Store persists conversation turns keyed by session id.
type Store interface {
	// History returns every turn of the session, oldest first.
	History(ctx context.Context, sessionID string) ([]models.Turn, error)
	// Append adds turns to the session atomically and in order.
	Append(ctx context.Context, sessionID string, turns ...models.Turn) error
	// Clear removes all turns of the session.
	Clear(ctx context.Context, sessionID string) error
	// Sessions lists the ids of sessions that have at least one turn, sorted.
	Sessions(ctx context.Context) ([]string, error)
	Close() error
}

// NewTurn creates a turn with a fresh id and the current time.
func NewTurn(role models.Role, text string) models.Turn {
	return models.Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}

// Open creates the store selected by cfg.Backend.
func Open(cfg *config.SessionsConfig) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown session backend: %s (supported: memory, sqlite)", cfg.Backend)
	}
}

// Last returns the final n turns, or all of them when n <= 0 or n >= len(turns).
func Last(turns []models.Turn, n int) []models.Turn {
	if n <= 0 || n >= len(turns) {
		return turns
	}
	return turns[len(turns)-n:]
}
