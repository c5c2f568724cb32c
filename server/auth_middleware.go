package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	usersessions "github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/rs/zerolog"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the authenticated sessions.Session
const ContextKeySession ContextKey = "session"

// SessionFromContext returns the session placed there by the auth middleware.
func SessionFromContext(ctx context.Context) (usersessions.Session, bool) {
	sess, ok := ctx.Value(ContextKeySession).(usersessions.Session)
	return sess, ok
}

// currentSession resolves the cookie's session ID against the session store.
func (s *Server) currentSession(r *http.Request) (usersessions.Session, error) {
	sessionID := cookieString(s.cookieSession(r), cookieKeySessionID)
	if sessionID == "" {
		return usersessions.Session{}, apperrors.ErrSessionNotFound
	}
	return s.sessions.Get(r.Context(), sessionID)
}

func (s *Server) authenticate(r *http.Request) (*http.Request, error) {
	sess, err := s.currentSession(r)
	if err != nil {
		return r, err
	}
	logger := zerolog.Ctx(r.Context()).With().Str("login", sess.Login).Logger()
	ctx := context.WithValue(r.Context(), ContextKeySession, sess)
	return r.WithContext(logger.WithContext(ctx)), nil
}

// RequireSessionAuth is middleware for HTML routes: without a live session the
// browser is sent to the login flow.
func (s *Server) RequireSessionAuth() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authed, err := s.authenticate(r)
			if err != nil {
				s.logAuthFailure(r, err)
				if apperrors.Is(err, apperrors.ErrSessionExpired) {
					_ = s.expireCookie(w, r)
				}
				redirectSuccess(w, r, RouteAuthLogin)
				return
			}
			next(w, authed)
		}
	}
}

// RequireAPISessionAuth is the JSON variant of RequireSessionAuth and answers 401.
func (s *Server) RequireAPISessionAuth() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authed, err := s.authenticate(r)
			if err != nil {
				s.logAuthFailure(r, err)
				if apperrors.Is(err, apperrors.ErrSessionNotFound) || apperrors.Is(err, apperrors.ErrSessionExpired) {
					err = apperrors.ErrUnauthenticated
				}
				writeJSONError(w, r, err)
				return
			}
			next(w, authed)
		}
	}
}

// RequireCSRF checks the X-CSRF-Token header, or the csrf_token form field,
// against the session's token. It must run after one of the session middlewares.
func (s *Server) RequireCSRF(onFail ErrorResponder) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				onFail(w, r, apperrors.ErrUnauthenticated)
				return
			}

			token := r.Header.Get(headerCSRFToken)
			if token == "" && isFormPost(r) {
				token = r.PostFormValue(formCSRFToken)
			}
			if !tokensEqual(token, sess.CSRFToken) {
				zerolog.Ctx(r.Context()).Warn().Msg("CSRF token mismatch")
				onFail(w, r, apperrors.ErrInvalidCSRFToken)
				return
			}
			next(w, r)
		}
	}
}

func isFormPost(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func (s *Server) logAuthFailure(r *http.Request, err error) {
	if apperrors.Is(err, apperrors.ErrSessionNotFound) {
		return
	}
	zerolog.Ctx(r.Context()).Info().Err(err).Str("path", r.URL.Path).Msg("Rejected session")
}
