package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jrsteele09/gh-collaborator-audit/collaborators"
	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/rs/zerolog"
)

// DashboardPageData is the model for dashboard.html
type DashboardPageData struct {
	PageData
	Name      string
	Filter    collaborators.Filter
	Dashboard collaborators.Dashboard
}

// DashboardHandler lists the viewer's repositories with their collaborators (GET /dashboard).
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			redirectSuccess(w, r, RouteAuthLogin)
			return
		}

		filter := collaborators.Filter{
			IgnoreForks:    queryBool(r, "ignore_forks"),
			IgnoreArchived: queryBool(r, "ignore_archived"),
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetRequestTimeout())
		defer cancel()

		data := DashboardPageData{
			PageData: PageData{
				AppName:   s.config.GetAppName(),
				Login:     sess.Login,
				AvatarURL: sess.AvatarURL,
				CSRFToken: sess.CSRFToken,
			},
			Name:   sess.Name,
			Filter: filter,
		}
		status := http.StatusOK

		dashboard, err := s.audit.Dashboard(ctx, s.newAPI(ctx, sess.AccessToken), sess.Login, filter)
		switch {
		case apperrors.Is(err, apperrors.ErrUnauthenticated):
			// The token was revoked on GitHub's side; the session is useless now.
			logger.Info().Msg("GitHub token rejected, ending session")
			_ = s.sessions.Delete(r.Context(), sess.ID)
			_ = s.expireCookie(w, r)
			redirectSuccess(w, r, RouteAuthLogin)
			return
		case err != nil:
			logger.Error().Err(err).Msg("Failed to load dashboard")
			data.Error = "Could not load repositories from GitHub: " + apperrors.PublicMessage(err)
			status = apperrors.HTTPStatus(err)
		}
		data.Dashboard = dashboard
		if data.Dashboard.Viewer == "" {
			data.Dashboard.Viewer = sess.Login
		}

		renderPage(w, r, tmpl, status, data)
	}
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
