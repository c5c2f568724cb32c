package server

import (
	"net/http"

	"github.com/jrsteele09/gh-collaborator-audit/server/authflowrepo"
	usersessions "github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/rs/zerolog"
)

// LoginHandler starts the GitHub authorization code flow (GET /auth/login).
// The state is stored server-side and bound to the browser through the session cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		if _, err := s.currentSession(r); err == nil {
			redirectSuccess(w, r, RouteDashboard)
			return
		}

		state := usersessions.RandomToken(32)
		authState := authflowrepo.AuthFlowState{
			ReturnURL: safeReturnURL(r.URL.Query().Get("return_to")),
			CreatedAt: s.clock.Now(),
		}
		if err := s.authState.Upsert(r.Context(), state, authState); err != nil {
			logger.Error().Err(err).Msg("Failed to store OAuth state")
			s.renderError(w, r, err)
			return
		}

		cs := s.cookieSession(r)
		cs.Values[cookieKeyOAuthState] = state
		if err := cs.Save(r, w); err != nil {
			logger.Error().Err(err).Msg("Failed to save OAuth state cookie")
			s.renderError(w, r, err)
			return
		}

		http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
	}
}
