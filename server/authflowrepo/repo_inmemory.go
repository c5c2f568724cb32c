package authflowrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/rs/zerolog/log"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]AuthFlowState
	clock  clockwork.Clock
	ttl    time.Duration
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory auth flow state repository.
// States older than ttl are treated as unknown.
func NewInMemoryRepo(clock clockwork.Clock, ttl time.Duration) *InMemoryRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryRepo{
		states: make(map[string]AuthFlowState),
		clock:  clock,
		ttl:    ttl,
	}
}

// Upsert stores or updates an auth flow state
func (r *InMemoryRepo) Upsert(_ context.Context, state string, authState AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState.CreatedAt.IsZero() {
		authState.CreatedAt = r.clock.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state] = authState
	return nil
}

// Consume retrieves and removes an auth flow state
func (r *InMemoryRepo) Consume(_ context.Context, state string) (AuthFlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	authState, err := r.lookup(state)
	delete(r.states, state)
	return authState, err
}

// Delete removes an auth flow state
func (r *InMemoryRepo) Delete(_ context.Context, state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}

// DeleteExpired drops states that outlived the TTL.
func (r *InMemoryRepo) DeleteExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for state, authState := range r.states {
		if r.expired(authState) {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}

// Run sweeps expired states every interval until ctx is cancelled.
func (r *InMemoryRepo) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := r.DeleteExpired(); n > 0 {
				log.Debug().Int("removed", n).Msg("Swept expired auth flow states")
			}
		}
	}
}

// lookup must be called with r.mu held.
func (r *InMemoryRepo) lookup(state string) (AuthFlowState, error) {
	if state == "" {
		return AuthFlowState{}, apperrors.ErrInvalidState
	}
	authState, exists := r.states[state]
	if !exists {
		return AuthFlowState{}, apperrors.Wrapf(apperrors.ErrInvalidState, "state not found")
	}
	if r.expired(authState) {
		delete(r.states, state)
		return AuthFlowState{}, apperrors.Wrapf(apperrors.ErrInvalidState, "state expired")
	}
	return authState, nil
}

func (r *InMemoryRepo) expired(authState AuthFlowState) bool {
	return r.clock.Since(authState.CreatedAt) >= r.ttl
}
