package sessions

import "context"

// Repo defines session storage. Implementations must be safe for concurrent use.
// Get reports a missing session with errors.ErrSessionNotFound and an expired one with
// errors.ErrSessionExpired.
type Repo interface {
	// Create stores a new session under session.ID
	Create(ctx context.Context, session Session) error

	// Get retrieves a live session by ID
	Get(ctx context.Context, sessionID string) (Session, error)

	// Delete removes a session; deleting an unknown ID is not an error
	Delete(ctx context.Context, sessionID string) error
}
