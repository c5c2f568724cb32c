package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{apperrors.ErrUnauthenticated, http.StatusUnauthorized},
		{apperrors.Wrapf(apperrors.ErrSessionExpired, "lookup %s", "abc"), http.StatusUnauthorized},
		{apperrors.ErrInvalidCSRFToken, http.StatusForbidden},
		{fmt.Errorf("decode: %w", apperrors.ErrInvalidRequest), http.StatusBadRequest},
		{apperrors.ErrInvalidState, http.StatusBadRequest},
		{apperrors.ErrRateLimited, http.StatusTooManyRequests},
		{apperrors.Wrapf(apperrors.ErrUpstream, "github"), http.StatusBadGateway},
		{fmt.Errorf("github remove_collaborator: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		require.Equal(t, c.want, apperrors.HTTPStatus(c.err), "%v", c.err)
	}
}

func TestWrapf(t *testing.T) {
	require.Nil(t, apperrors.Wrapf(nil, "nothing"))

	err := apperrors.Wrapf(apperrors.ErrNotFound, "repo %s", "octo/cat")
	require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	require.Equal(t, "repo octo/cat: not found", err.Error())
}

func TestPublicMessage(t *testing.T) {
	require.Equal(t, "upstream error", apperrors.PublicMessage(apperrors.Wrapf(apperrors.ErrUpstream, "token=secret")))
	require.Equal(t, "internal error", apperrors.PublicMessage(fmt.Errorf("db password leaked")))
	require.Equal(t, "items: invalid request", apperrors.PublicMessage(apperrors.Wrapf(apperrors.ErrInvalidRequest, "items")))
	require.Equal(t, "request timed out", apperrors.PublicMessage(fmt.Errorf("github remove_collaborator: %w", context.DeadlineExceeded)))
}

