package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/gh-collaborator-audit/collaborators"
	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/rs/zerolog"
)

const maxRemoveBodyBytes = 1 << 20

// RemoveRequest is the body of POST /remove
type RemoveRequest struct {
	Items []collaborators.RemoveItem `json:"items"`
}

// RemoveHandler revokes the requested collaborators and answers with one outcome
// per item, in request order (POST /remove).
func (s *Server) RemoveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, r, apperrors.ErrUnauthenticated)
			return
		}

		var req RemoveRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRemoveBodyBytes))
		if err := dec.Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeJSONError(w, r, apperrors.Wrapf(apperrors.ErrInvalidRequest, "request body too large"))
				return
			}
			writeJSONError(w, r, apperrors.Wrapf(apperrors.ErrInvalidRequest, "malformed JSON body"))
			return
		}
		if err := collaborators.ValidateBatch(req.Items); err != nil {
			writeJSONError(w, r, err)
			return
		}

		// Removals keep going if the client disconnects mid-batch. Every call has its
		// own deadline, so a full batch may outlast the server's write timeout.
		ctx := context.WithoutCancel(r.Context())
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Could not clear write deadline")
		}

		outcomes, err := s.audit.Remove(ctx, s.newAPI(ctx, sess.AccessToken), sess.Login, req.Items)
		if err != nil {
			writeJSONError(w, r, err)
			return
		}

		removed := 0
		for _, o := range outcomes {
			if o.Status == collaborators.StatusRemoved {
				removed++
			}
		}
		zerolog.Ctx(r.Context()).Info().
			Int("requested", len(req.Items)).
			Int("removed", removed).
			Msg("Processed removal batch")

		writeJSON(w, r, http.StatusOK, outcomes)
	}
}
