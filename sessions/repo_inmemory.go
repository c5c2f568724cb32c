package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/rs/zerolog/log"
)

// Gauge receives the number of live sessions after every change.
type Gauge interface {
	SetActiveSessions(n int)
}

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
// Sessions are lost on restart.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
	clock    clockwork.Clock
	gauge    Gauge
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates an empty repo. gauge may be nil.
func NewInMemoryRepo(clock clockwork.Clock, gauge Gauge) *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]Session),
		clock:    clock,
		gauge:    gauge,
	}
}

// Create stores a session
func (r *InMemoryRepo) Create(_ context.Context, session Session) error {
	if session.ID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	// Copy the scopes so callers cannot modify the stored session
	session.Scopes = append([]string(nil), session.Scopes...)
	r.sessions[session.ID] = session
	r.report()
	return nil
}

// Get retrieves a session, evicting it if it has expired
func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, apperrors.ErrSessionNotFound
	}

	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return Session{}, apperrors.ErrSessionNotFound
	}
	if session.Expired(r.clock.Now()) {
		r.mu.Lock()
		delete(r.sessions, sessionID)
		r.report()
		r.mu.Unlock()
		return Session{}, apperrors.ErrSessionExpired
	}

	session.Scopes = append([]string(nil), session.Scopes...)
	return session, nil
}

// Delete removes a session
func (r *InMemoryRepo) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	r.report()
	return nil
}

// DeleteExpired removes every session that has expired and returns how many were removed.
func (r *InMemoryRepo) DeleteExpired() int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.report()
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (r *InMemoryRepo) Run(ctx context.Context, interval time.Duration) {
	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := r.DeleteExpired(); n > 0 {
				log.Debug().Int("removed", n).Msg("Swept expired sessions")
			}
		}
	}
}

// report must be called with r.mu held.
func (r *InMemoryRepo) report() {
	if r.gauge != nil {
		r.gauge.SetActiveSessions(len(r.sessions))
	}
}
