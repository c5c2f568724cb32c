package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/jrsteele09/gh-collaborator-audit/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/oauth2"
)

const (
	// sessionCookieName is the browser cookie that carries the session ID and pending OAuth state
	sessionCookieName = "gh_session"

	cookieKeySessionID  = "sid"
	cookieKeyOAuthState = "oauth_state"

	headerCSRFToken = "X-CSRF-Token"
	formCSRFToken   = "csrf_token"
)

// newCookieStore derives separate signing and encryption keys from SESSION_SECRET.
func newCookieStore(cfg config.Config) (*sessions.CookieStore, error) {
	hashKey, err := deriveKey(cfg.GetSessionSecret(), "gh_session signing", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(cfg.GetSessionSecret(), "gh_session encryption", 32)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.GetMaxSessionAge().Seconds()),
		HttpOnly: true,
		Secure:   cfg.GetSecureCookies(),
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)
	return store, nil
}

func deriveKey(secret, info string, length int) ([]byte, error) {
	key := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

func newOAuthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.GetAuthURL(),
			TokenURL:  cfg.GetTokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.GetCallbackURL(),
		Scopes:      cfg.GetScopes(),
	}
}

// cookieSession returns the browser's cookie session. A cookie that fails to
// decode, e.g. after a secret rotation, is replaced by a fresh one.
func (s *Server) cookieSession(r *http.Request) *sessions.Session {
	cs, err := s.cookieStore.Get(r, sessionCookieName)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Discarding undecodable session cookie")
		cs.Values = map[interface{}]interface{}{}
	}
	return cs
}

func cookieString(cs *sessions.Session, key string) string {
	v, _ := cs.Values[key].(string)
	return v
}

// expireCookie clears the browser cookie.
func (s *Server) expireCookie(w http.ResponseWriter, r *http.Request) error {
	cs := s.cookieSession(r)
	cs.Values = map[interface{}]interface{}{}
	cs.Options.MaxAge = -1
	return cs.Save(r, w)
}

// hasScopes reports whether the comma or space separated granted list covers required.
func hasScopes(granted string, required []string) bool {
	have := make(map[string]bool)
	for _, scope := range splitScopes(granted) {
		have[scope] = true
	}
	for _, scope := range required {
		if !have[scope] {
			return false
		}
	}
	return true
}

func splitScopes(granted string) []string {
	return strings.FieldsFunc(granted, func(r rune) bool { return r == ',' || r == ' ' })
}

func tokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// safeReturnURL only allows local paths.
func safeReturnURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return RouteDashboard
	}
	if u.Path == RouteIndex {
		return RouteDashboard
	}
	return u.RequestURI()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// redirectSuccess sends the browser on with a 303 so a POST becomes a GET.
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
