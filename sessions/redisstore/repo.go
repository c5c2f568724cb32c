// Package redisstore keeps dashboard sessions in Redis so they survive restarts
// and can be shared between replicas.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonboulle/clockwork"
	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "ghaudit:session:"

// Repo implements sessions.Repo on top of Redis. Each session is a JSON string
// whose TTL matches the session's remaining lifetime.
type Repo struct {
	rdb   goredis.Cmdable
	clock clockwork.Clock
}

var _ sessions.Repo = (*Repo)(nil)

func New(rdb goredis.Cmdable, clock clockwork.Clock) *Repo {
	return &Repo{rdb: rdb, clock: clock}
}

// NewClient parses redisURL (e.g. "redis://localhost:6379/0") and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis URL")
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}
	return rdb, nil
}

func (r *Repo) Create(ctx context.Context, session sessions.Session) error {
	if session.ID == "" {
		return fmt.Errorf("sessionID is required")
	}

	ttl := session.ExpiresAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return apperrors.ErrSessionExpired
	}

	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}

	created, err := r.rdb.SetNX(ctx, key(session.ID), data, ttl).Result()
	if err != nil {
		return errors.Wrap(err, "redis SETNX session")
	}
	if !created {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, sessionID string) (sessions.Session, error) {
	if sessionID == "" {
		return sessions.Session{}, apperrors.ErrSessionNotFound
	}

	data, err := r.rdb.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return sessions.Session{}, apperrors.ErrSessionNotFound
	}
	if err != nil {
		return sessions.Session{}, errors.Wrap(err, "redis GET session")
	}

	var session sessions.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return sessions.Session{}, errors.Wrap(err, "failed to unmarshal session")
	}

	// Redis TTLs are coarse; the stored expiry is authoritative.
	if session.Expired(r.clock.Now()) {
		_ = r.rdb.Del(ctx, key(sessionID)).Err()
		return sessions.Session{}, apperrors.ErrSessionExpired
	}
	return session, nil
}

func (r *Repo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := r.rdb.Del(ctx, key(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "redis DEL session")
	}
	return nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}
