package collaborators

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MaxRemoveItems caps a single /remove request.
const MaxRemoveItems = 500

var (
	loginPattern    = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)
	repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// ValidateBatch checks the size of a removal request.
func ValidateBatch(items []RemoveItem) error {
	if len(items) == 0 {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "items must not be empty")
	}
	if len(items) > MaxRemoveItems {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "at most %d items per request", MaxRemoveItems)
	}
	return nil
}

// Remove revokes each item independently and returns one outcome per item, in order.
// Items the viewer may not act on are reported without calling GitHub.
func (s *Service) Remove(ctx context.Context, api API, viewer string, items []RemoveItem) ([]RemoveOutcome, error) {
	if err := ValidateBatch(items); err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)

	outcomes := make([]RemoveOutcome, len(items))
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, item := range items {
		owner, name, out := resolve(item, viewer)
		if out.Status != "" {
			outcomes[i] = out
			s.observe(out.Status)
			continue
		}

		g.Go(func() error {
			itemCtx, cancel := s.itemContext(ctx)
			defer cancel()

			err := api.RemoveCollaborator(itemCtx, owner, name, item.Username)
			res := outcomeFor(out, err)
			if err != nil && res.Status != StatusNotFound {
				logger.Warn().Err(err).
					Str("repo", res.Repo).
					Str("username", res.Username).
					Msg("Failed to remove collaborator")
			} else {
				logger.Info().
					Str("repo", res.Repo).
					Str("username", res.Username).
					Str("status", string(res.Status)).
					Msg("Collaborator removal")
			}
			outcomes[i] = res
			s.observe(res.Status)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

// resolve normalises item. A non-empty Status on the returned outcome means the
// item was rejected locally.
func resolve(item RemoveItem, viewer string) (owner, name string, out RemoveOutcome) {
	repo := strings.TrimSpace(item.Repo)
	username := strings.TrimSpace(item.Username)
	out = RemoveOutcome{Repo: repo, Username: username}

	owner, name = viewer, repo
	if o, n, ok := strings.Cut(repo, "/"); ok {
		owner, name = o, n
	}

	switch {
	case username == "":
		return "", "", rejected(out, StatusInvalid, "username is required")
	case !loginPattern.MatchString(username):
		return "", "", rejected(out, StatusInvalid, "invalid username")
	case name == "" || !loginPattern.MatchString(owner):
		return "", "", rejected(out, StatusInvalid, "repo must be owner/name")
	case !repoNamePattern.MatchString(name) || name == "." || name == "..":
		return "", "", rejected(out, StatusInvalid, "invalid repository name")
	case !strings.EqualFold(owner, viewer):
		return "", "", rejected(out, StatusForbidden, fmt.Sprintf("%s is not owned by %s", owner+"/"+name, viewer))
	case strings.EqualFold(username, viewer):
		return "", "", rejected(out, StatusInvalid, "cannot remove yourself")
	}

	out.Repo = owner + "/" + name
	return owner, name, out
}

func rejected(out RemoveOutcome, status Status, msg string) RemoveOutcome {
	out.Status = status
	out.Error = msg
	return out
}

func outcomeFor(out RemoveOutcome, err error) RemoveOutcome {
	switch {
	case err == nil:
		out.Status = StatusRemoved
		out.Success = true
	case apperrors.Is(err, apperrors.ErrNotFound):
		// GitHub answers 404 both for a collaborator that is already gone and
		// for a repository the viewer cannot see, so nothing is claimed as removed.
		out.Status = StatusNotFound
		out.Error = "collaborator or repository not found"
	case apperrors.Is(err, apperrors.ErrForbidden):
		out.Status = StatusForbidden
		out.Error = apperrors.PublicMessage(err)
	default:
		out.Status = StatusFailed
		out.Error = apperrors.PublicMessage(err)
	}
	return out
}

func (s *Service) itemContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.itemTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.itemTimeout)
}

func (s *Service) observe(status Status) {
	if s.observer != nil {
		s.observer.ObserveRemoval(string(status))
	}
}
