package authflowrepo

import (
	"context"
	"time"
)

// DefaultTTL bounds how long a user may take at GitHub's consent screen.
const DefaultTTL = 10 * time.Minute

// AuthFlowState is what the server remembers about an OAuth authorization request
// between /auth/login and /auth/callback.
type AuthFlowState struct {
	ReturnURL string
	CreatedAt time.Time
}

// Repo stores pending OAuth states. A state is single use: Consume returns it and
// removes it in one step. Delete drops a state whose flow was abandoned.
type Repo interface {
	Upsert(ctx context.Context, state string, authState AuthFlowState) error
	Consume(ctx context.Context, state string) (AuthFlowState, error)
	Delete(ctx context.Context, state string) error
}
