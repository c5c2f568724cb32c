package github

import (
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
)

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	Operation  string `json:"-"`
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("github %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Unwrap maps the status code onto the application's sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthenticated
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	default:
		return apperrors.ErrUpstream
	}
}
