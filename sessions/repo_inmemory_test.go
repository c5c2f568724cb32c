package sessions_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGauge struct {
	mu   sync.Mutex
	last int
}

func (g *countingGauge) SetActiveSessions(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = n
}

func (g *countingGauge) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func newSession(clock clockwork.Clock, ttl time.Duration) sessions.Session {
	now := clock.Now()
	return sessions.Session{
		ID:          sessions.NewID(),
		UserID:      42,
		Login:       "octocat",
		AccessToken: "gho_secret",
		Scopes:      []string{"repo", "read:org"},
		CSRFToken:   sessions.RandomToken(32),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

func TestInMemoryRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	gauge := &countingGauge{}
	repo := sessions.NewInMemoryRepo(clock, gauge)

	s := newSession(clock, time.Hour)
	require.NoError(t, repo.Create(ctx, s))
	require.Equal(t, 1, gauge.value())

	t.Run("get returns a copy", func(t *testing.T) {
		got, err := repo.Get(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, "octocat", got.Login)
		got.Scopes[0] = "mutated"

		again, err := repo.Get(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, "repo", again.Scopes[0])
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		require.Error(t, repo.Create(ctx, s))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, s.ID))
		_, err := repo.Get(ctx, s.ID)
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
		require.Equal(t, 0, gauge.value())
	})

	t.Run("delete unknown is a no-op", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "missing"))
	})

	t.Run("empty id", func(t *testing.T) {
		require.Error(t, repo.Create(ctx, sessions.Session{}))
		_, err := repo.Get(ctx, "")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})
}

func TestInMemoryRepo_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	repo := sessions.NewInMemoryRepo(clock, nil)

	s := newSession(clock, time.Minute)
	require.NoError(t, repo.Create(ctx, s))

	clock.Advance(59 * time.Second)
	_, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = repo.Get(ctx, s.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.Equal(t, 0, repo.Len())
}

func TestInMemoryRepo_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	repo := sessions.NewInMemoryRepo(clock, nil)

	require.NoError(t, repo.Create(ctx, newSession(clock, time.Minute)))
	require.NoError(t, repo.Create(ctx, newSession(clock, time.Minute)))
	live := newSession(clock, time.Hour)
	require.NoError(t, repo.Create(ctx, live))

	clock.Advance(2 * time.Minute)
	require.Equal(t, 2, repo.DeleteExpired())
	require.Equal(t, 1, repo.Len())

	_, err := repo.Get(ctx, live.ID)
	require.NoError(t, err)
}

func TestInMemoryRepo_RunSweeps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := clockwork.NewFakeClock()
	repo := sessions.NewInMemoryRepo(clock, nil)
	require.NoError(t, repo.Create(ctx, newSession(clock, time.Minute)))

	done := make(chan struct{})
	go func() {
		repo.Run(ctx, time.Minute)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestInMemoryRepo_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	repo := sessions.NewInMemoryRepo(clock, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := newSession(clock, time.Hour)
			s.Login = fmt.Sprintf("user-%d", i)
			assert.NoError(t, repo.Create(ctx, s))
			got, err := repo.Get(ctx, s.ID)
			assert.NoError(t, err)
			assert.Equal(t, s.Login, got.Login)
			assert.NoError(t, repo.Delete(ctx, s.ID))
		}(i)
	}
	wg.Wait()
	require.Equal(t, 0, repo.Len())
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := sessions.NewID()
		require.Len(t, id, 43)
		require.False(t, seen[id])
		seen[id] = true
	}
}
