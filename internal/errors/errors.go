package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the dashboard
var (
	// Authentication errors
	ErrUnauthenticated   = errors.New("authentication required")
	ErrInvalidState      = errors.New("invalid oauth state")
	ErrInsufficientScope = errors.New("insufficient oauth scope")
	ErrInvalidCSRFToken  = errors.New("invalid csrf token")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("rate limit exceeded")

	// Upstream errors
	ErrUpstream = errors.New("upstream error")
	ErrTimeout  = errors.New("request timed out")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// HTTPStatus maps an error chain onto the status code returned to the browser.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrUnauthenticated), Is(err, ErrSessionNotFound), Is(err, ErrSessionExpired):
		return http.StatusUnauthorized
	case Is(err, ErrForbidden), Is(err, ErrInvalidCSRFToken):
		return http.StatusForbidden
	case Is(err, ErrInvalidRequest), Is(err, ErrInvalidState), Is(err, ErrInsufficientScope):
		return http.StatusBadRequest
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case Is(err, ErrTimeout), Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that is safe to show a user for err.
func PublicMessage(err error) string {
	for _, known := range []error{
		ErrUnauthenticated, ErrSessionExpired, ErrSessionNotFound, ErrInvalidState,
		ErrInsufficientScope, ErrInvalidCSRFToken, ErrForbidden, ErrNotFound,
		ErrRateLimited, ErrTimeout, ErrUpstream,
	} {
		if Is(err, known) {
			return known.Error()
		}
	}
	if Is(err, context.DeadlineExceeded) {
		return ErrTimeout.Error()
	}
	if Is(err, ErrInvalidRequest) {
		return err.Error()
	}
	return ErrInternal.Error()
}
