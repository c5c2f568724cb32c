package server

import (
	"net/http"
)

// IndexHandler renders the landing page, or sends a signed-in user to the dashboard
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.currentSession(r); err == nil {
			redirectSuccess(w, r, RouteDashboard)
			return
		}

		renderPage(w, r, tmpl, http.StatusOK, PageData{
			AppName: s.config.GetAppName(),
		})
	}
}
