package collaborators

import (
	"context"

	"github.com/jrsteele09/gh-collaborator-audit/github"
)

// API is the subset of the GitHub client the service needs. *github.Client satisfies it.
type API interface {
	ListOwnedRepositories(ctx context.Context) ([]github.Repository, error)
	ListCollaborators(ctx context.Context, owner, repo string) ([]github.Collaborator, error)
	RemoveCollaborator(ctx context.Context, owner, repo, username string) error
}

var _ API = (*github.Client)(nil)

// Filter narrows the repositories shown on the dashboard.
type Filter struct {
	IgnoreForks    bool
	IgnoreArchived bool
}

// RepoCollaborators is one dashboard row.
type RepoCollaborators struct {
	Repository    github.Repository
	Collaborators []github.Collaborator
	// CanRemove is true when the viewer owns the repository.
	CanRemove bool
	// Error holds the reason the collaborators could not be listed, if any.
	Error string
}

type Dashboard struct {
	Viewer             string
	Repositories       []RepoCollaborators
	TotalCollaborators int
	// Failed counts repositories whose collaborators could not be listed.
	Failed int
}

// RemoveItem asks for username to be removed from repo ("owner/name" or a bare name).
type RemoveItem struct {
	Repo     string `json:"repo"`
	Username string `json:"username"`
}

// Status classifies a RemoveOutcome. Only StatusRemoved is a success.
type Status string

const (
	StatusRemoved   Status = "removed"
	StatusNotFound  Status = "not_found"
	StatusForbidden Status = "forbidden"
	StatusInvalid   Status = "invalid"
	StatusFailed    Status = "failed"
)

// RemoveOutcome reports what happened to one RemoveItem.
type RemoveOutcome struct {
	Repo     string `json:"repo"`
	Username string `json:"username"`
	Status   Status `json:"status"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}
