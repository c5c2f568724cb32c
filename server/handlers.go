package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/rs/zerolog"
)

var errorTemplate = mustParseTemplate("error.html")

// ErrorPageData is the model for error.html
type ErrorPageData struct {
	PageData
	Status int
	Title  string
}

// HealthHandler answers load balancer probes.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}

// renderError shows the HTML error page for err.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	s.renderErrorStatus(w, r, apperrors.HTTPStatus(err), apperrors.PublicMessage(err))
}

func (s *Server) renderErrorStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	renderPage(w, r, errorTemplate, status, ErrorPageData{
		PageData: PageData{AppName: s.config.GetAppName(), Error: message},
		Status:   status,
		Title:    http.StatusText(status),
	})
}

type errorBody struct {
	Error string `json:"error"`
}

// writeJSONError writes {"error": "..."} with the status mapped from err.
func writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, r, status, errorBody{Error: apperrors.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}
