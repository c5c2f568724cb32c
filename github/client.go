package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/gh-collaborator-audit/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "collaborator-audit-dashboard"
	pageSize         = "100"
	maxPages         = 50
	maxErrorBody     = 64 * 1024
)

// Operation names used for metrics and error messages.
const (
	OpAuthenticatedUser  = "get_user"
	OpListRepositories   = "list_repos"
	OpListCollaborators  = "list_collaborators"
	OpRemoveCollaborator = "remove_collaborator"
)

// Observer is told about every API call made by a Client.
type Observer interface {
	ObserveUpstream(operation string, status int, d time.Duration)
}

// Client calls the GitHub REST API on behalf of a single user.
type Client struct {
	http      *http.Client
	baseURL   *url.URL
	userAgent string
	observer  Observer
}

type Option func(*Client)

// WithBaseURL points the client at another API root, such as GitHub Enterprise or a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(strings.TrimRight(raw, "/") + "/"); err == nil {
			c.baseURL = u
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New returns a client that authenticates with accessToken. The HTTP client is derived
// from ctx, so an *http.Client stored under oauth2.HTTPClient is used as the transport.
func New(ctx context.Context, accessToken string, opts ...Option) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	base, _ := url.Parse(DefaultBaseURL + "/")
	c := &Client{
		http:      oauth2.NewClient(ctx, src),
		baseURL:   base,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthenticatedUser returns the account that owns the access token.
func (c *Client) AuthenticatedUser(ctx context.Context) (User, error) {
	var u User
	if _, err := c.do(ctx, OpAuthenticatedUser, http.MethodGet, c.resolve("user", nil), &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListOwnedRepositories returns every repository owned by the authenticated user.
func (c *Client) ListOwnedRepositories(ctx context.Context) ([]Repository, error) {
	q := url.Values{
		"affiliation": {"owner"},
		"sort":        {"full_name"},
		"per_page":    {pageSize},
	}
	return getAll[Repository](ctx, c, OpListRepositories, c.resolve("user/repos", q))
}

// ListCollaborators returns the direct collaborators of owner/repo.
// Path segments are not escaped; callers pass validated GitHub names.
func (c *Client) ListCollaborators(ctx context.Context, owner, repo string) ([]Collaborator, error) {
	q := url.Values{
		"affiliation": {"direct"},
		"per_page":    {pageSize},
	}
	path := "repos/" + owner + "/" + repo + "/collaborators"
	return getAll[Collaborator](ctx, c, OpListCollaborators, c.resolve(path, q))
}

// RemoveCollaborator revokes username's access to owner/repo.
// A collaborator that no longer exists yields an error matching apperrors.ErrNotFound.
func (c *Client) RemoveCollaborator(ctx context.Context, owner, repo, username string) error {
	path := "repos/" + owner + "/" + repo + "/collaborators/" + username
	_, err := c.do(ctx, OpRemoveCollaborator, http.MethodDelete, c.resolve(path, nil), nil)
	return err
}

func (c *Client) resolve(path string, q url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func getAll[T any](ctx context.Context, c *Client, op, first string) ([]T, error) {
	var all []T
	next := first
	for page := 0; next != ""; page++ {
		if page == maxPages {
			return nil, errors.Wrapf(apperrors.ErrUpstream, "github %s: more than %d pages", op, maxPages)
		}
		if err := c.sameOrigin(next); err != nil {
			return nil, errors.Wrapf(err, "github %s", op)
		}

		var items []T
		header, err := c.do(ctx, op, http.MethodGet, next, &items)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		next = ParseNextLink(header.Get("Link"))
	}
	return all, nil
}

func (c *Client) sameOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrap(apperrors.ErrUpstream, "invalid pagination link")
	}
	if u.Scheme != c.baseURL.Scheme || u.Host != c.baseURL.Host {
		return errors.Wrapf(apperrors.ErrUpstream, "pagination link leaves %s", c.baseURL.Host)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, target string, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "github %s: build request", op)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, start)
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "github %s", op)
		}
		return nil, errors.Wrapf(apperrors.Wrapf(apperrors.ErrUpstream, "%v", err), "github %s", op)
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Operation: op, StatusCode: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(body, apiErr)
		return resp.Header, apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, errors.Wrapf(apperrors.Wrapf(apperrors.ErrUpstream, "%v", err), "github %s: decode response", op)
		}
	}
	return resp.Header, nil
}

func (c *Client) observe(op string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(op, status, time.Since(start))
	}
}
