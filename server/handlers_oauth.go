package server

import (
	"net/http"

	"github.com/rs/zerolog"
)

// LogoutHandler destroys the server-side session and expires the cookie (POST /logout).
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		if sess, ok := SessionFromContext(r.Context()); ok {
			if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
				logger.Error().Err(err).Msg("Failed to delete session")
				s.renderError(w, r, err)
				return
			}
			logger.Info().Msg("User signed out")
		}

		if err := s.expireCookie(w, r); err != nil {
			logger.Warn().Err(err).Msg("Failed to expire session cookie")
		}
		redirectSuccess(w, r, RouteIndex)
	}
}
