package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Session is the server-side record behind a browser's session cookie.
// It is created after a successful OAuth callback and destroyed at logout or expiry.
type Session struct {
	ID string `json:"id"`

	// GitHub identity
	UserID    int64  `json:"user_id"`
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	// GitHub OAuth access token used for API calls; never rendered.
	AccessToken string   `json:"access_token"`
	Scopes      []string `json:"scopes,omitempty"`

	// CSRFToken must accompany every state-changing request.
	CSRFToken string `json:"csrf_token"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// NewID returns a random, URL-safe session identifier (256 bits).
func NewID() string {
	return RandomToken(32)
}

// RandomToken returns length random bytes encoded as unpadded base64url.
func RandomToken(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
