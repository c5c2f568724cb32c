// Package collaborators builds the collaborator dashboard and carries out bulk removals
// against the GitHub API on behalf of a signed-in user.
package collaborators

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/gh-collaborator-audit/github"
	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 10

// RemovalObserver is told the status of every removal attempt.
type RemovalObserver interface {
	ObserveRemoval(status string)
}

type Service struct {
	concurrency int
	itemTimeout time.Duration
	observer    RemovalObserver
}

type Option func(*Service)

func WithRemovalObserver(o RemovalObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithItemTimeout bounds each removal call on its own, so a large batch is not
// limited by a single deadline. Zero means only the caller's context applies.
func WithItemTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.itemTimeout = d
	}
}

// NewService returns a service that runs at most concurrency upstream calls at once per request.
func NewService(concurrency int, opts ...Option) *Service {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	s := &Service{concurrency: concurrency}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dashboard lists the viewer's repositories and the direct collaborators of each.
// Failing to list one repository's collaborators is recorded on that row; failing
// to list repositories, or a revoked token, is returned as an error.
func (s *Service) Dashboard(ctx context.Context, api API, viewer string, filter Filter) (Dashboard, error) {
	logger := zerolog.Ctx(ctx)

	repos, err := api.ListOwnedRepositories(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	rows := make([]RepoCollaborators, 0, len(repos))
	for _, repo := range repos {
		if filter.IgnoreForks && repo.Fork {
			continue
		}
		if filter.IgnoreArchived && repo.Archived {
			continue
		}
		rows = append(rows, RepoCollaborators{
			Repository: repo,
			CanRemove:  strings.EqualFold(repo.Owner.Login, viewer),
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range rows {
		row := &rows[i]
		g.Go(func() error {
			collabs, err := api.ListCollaborators(gctx, row.Repository.Owner.Login, row.Repository.Name)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrUnauthenticated) {
					return err
				}
				logger.Warn().Err(err).Str("repo", row.Repository.FullName).Msg("Failed to list collaborators")
				row.Error = apperrors.PublicMessage(err)
				return nil
			}
			row.Collaborators = withoutViewer(collabs, viewer)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Repository.Name) < strings.ToLower(rows[j].Repository.Name)
	})

	d := Dashboard{Viewer: viewer, Repositories: rows}
	for _, row := range rows {
		d.TotalCollaborators += len(row.Collaborators)
		if row.Error != "" {
			d.Failed++
		}
	}
	return d, nil
}

func withoutViewer(collabs []github.Collaborator, viewer string) []github.Collaborator {
	out := make([]github.Collaborator, 0, len(collabs))
	for _, c := range collabs {
		if strings.EqualFold(c.Login, viewer) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Login) < strings.ToLower(out[j].Login)
	})
	return out
}
