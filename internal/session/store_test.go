package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/tanya/internal/config"
	"github.com/hyperjump/tanya/internal/models"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestStore_UnknownSession(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h, err := s.History(ctx, "nobody")
			require.NoError(t, err)
			assert.NotNil(t, h)
			assert.Empty(t, h)
			assert.NoError(t, s.Clear(ctx, "nobody"))
			ids, err := s.Sessions(ctx)
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestStore_AppendHistoryClear(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Append(ctx, "alice",
				NewTurn(models.RoleUser, "sum insured for policy 101?"),
				NewTurn(models.RoleAssistant, "5,00,000.")))
			require.NoError(t, s.Append(ctx, "alice", NewTurn(models.RoleUser, "and room rent?")))
			require.NoError(t, s.Append(ctx, "bob", NewTurn(models.RoleUser, "hello")))

			h, err := s.History(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, h, 3)
			assert.Equal(t, models.RoleUser, h[0].Role)
			assert.Equal(t, models.RoleAssistant, h[1].Role)
			assert.Equal(t, "and room rent?", h[2].Text)
			assert.NotEmpty(t, h[0].ID)
			assert.False(t, h[0].Timestamp.IsZero())

			ids, err := s.Sessions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"alice", "bob"}, ids)

			require.NoError(t, s.Clear(ctx, "alice"))
			h, err = s.History(ctx, "alice")
			require.NoError(t, err)
			assert.Empty(t, h)

			bob, err := s.History(ctx, "bob")
			require.NoError(t, err)
			assert.Len(t, bob, 1, "clear must not touch other sessions")

			ids, err = s.Sessions(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"bob"}, ids)

			require.NoError(t, s.Append(ctx, "alice", NewTurn(models.RoleUser, "again")))
			h, _ = s.History(ctx, "alice")
			assert.Len(t, h, 1, "a cleared session starts over")
		})
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	const n = 50
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := s.Append(ctx, "shared",
						NewTurn(models.RoleUser, fmt.Sprintf("q%d", i)),
						NewTurn(models.RoleAssistant, fmt.Sprintf("a%d", i)))
					assert.NoError(t, err)
					assert.NoError(t, s.Append(ctx, fmt.Sprintf("own-%d", i), NewTurn(models.RoleUser, "x")))
				}(i)
			}
			wg.Wait()

			h, err := s.History(ctx, "shared")
			require.NoError(t, err)
			require.Len(t, h, 2*n)
			for i := 0; i < len(h); i += 2 {
				// Each Append lands as a unit: a user turn directly followed by its answer.
				assert.Equal(t, "a"+h[i].Text[1:], h[i+1].Text)
			}
			ids, err := s.Sessions(ctx)
			require.NoError(t, err)
			assert.Len(t, ids, n+1)
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	ctx := context.Background()
	turn := NewTurn(models.RoleUser, "remember me")
	require.NoError(t, s.Append(ctx, "carol", turn))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	h, err := s.History(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, turn.ID, h[0].ID)
	assert.True(t, turn.Timestamp.Equal(h[0].Timestamp))

	size, err := s.SizeBytes()
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))
}

func TestKeyedMutex_ReleasesKeys(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("a")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, counter)
	assert.Equal(t, 0, k.size())
}

func TestOpen(t *testing.T) {
	s, err := Open(&config.SessionsConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(&config.SessionsConfig{Backend: "sqlite", DatabasePath: filepath.Join(t.TempDir(), "h.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(&config.SessionsConfig{Backend: "redis"})
	assert.Error(t, err)
}

func TestLast(t *testing.T) {
	turns := []models.Turn{{Text: "1"}, {Text: "2"}, {Text: "3"}}
	assert.Len(t, Last(turns, 2), 2)
	assert.Equal(t, "2", Last(turns, 2)[0].Text)
	assert.Len(t, Last(turns, 0), 3)
	assert.Len(t, Last(turns, 10), 3)
}
