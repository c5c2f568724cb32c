package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/gh-collaborator-audit/collaborators"
	"github.com/jrsteele09/gh-collaborator-audit/github"
	"github.com/jrsteele09/gh-collaborator-audit/internal/config"
	"github.com/jrsteele09/gh-collaborator-audit/internal/metrics"
	"github.com/jrsteele09/gh-collaborator-audit/server/authflowrepo"
	usersessions "github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// GitHubAPI is what the handlers need from GitHub for one signed-in user.
type GitHubAPI interface {
	collaborators.API
	AuthenticatedUser(ctx context.Context) (github.User, error)
}

var _ GitHubAPI = (*github.Client)(nil)

// APIFactory builds a GitHub API client for one user's access token.
type APIFactory func(ctx context.Context, accessToken string) GitHubAPI

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config

	sessions    usersessions.Repo
	authState   authflowrepo.Repo
	cookieStore *sessions.CookieStore
	oauth       *oauth2.Config
	httpClient  *http.Client
	newAPI      APIFactory
	audit       *collaborators.Service
	metrics     *metrics.Metrics
	limiter     *ipRateLimiter
	clock       clockwork.Clock
}

type Option func(*Server)

// WithClock replaces the wall clock used for session lifetimes and rate limiting.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithHTTPClient sets the client used for the token exchange and GitHub API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		s.httpClient = client
	}
}

// WithAPIFactory replaces how GitHub API clients are built.
func WithAPIFactory(f APIFactory) Option {
	return func(s *Server) {
		s.newAPI = f
	}
}

func New(cfg config.Config, sessionRepo usersessions.Repo, authStateRepo authflowrepo.Repo, m *metrics.Metrics, opts ...Option) (*Server, error) {
	if sessionRepo == nil || authStateRepo == nil {
		return nil, fmt.Errorf("[Server New] session and auth state repos are required")
	}
	if m == nil {
		m = metrics.New()
	}

	cookieStore, err := newCookieStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create cookie store: %w", err)
	}

	s := &Server{
		env:         cfg.GetEnv(),
		mux:         http.NewServeMux(),
		config:      cfg,
		sessions:    sessionRepo,
		authState:   authStateRepo,
		cookieStore: cookieStore,
		oauth:       newOAuthConfig(cfg),
		httpClient:  &http.Client{Timeout: cfg.GetRequestTimeout()},
		audit:       collaborators.NewService(cfg.GetMaxConcurrency(),
			collaborators.WithRemovalObserver(m),
			collaborators.WithItemTimeout(cfg.GetRequestTimeout()),
		),
		metrics:     m,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newAPI == nil {
		s.newAPI = s.githubAPI
	}
	rps, burst := cfg.GetRateLimit()
	s.limiter = newIPRateLimiter(rps, burst, s.clock)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RunLimiterCleanup forgets idle rate limiter entries until ctx is cancelled.
func (s *Server) RunLimiterCleanup(ctx context.Context) {
	s.limiter.Run(ctx)
}

func (s *Server) githubAPI(ctx context.Context, accessToken string) GitHubAPI {
	return github.New(s.clientContext(ctx), accessToken,
		github.WithBaseURL(s.config.GetAPIURL()),
		github.WithObserver(s.metrics),
		github.WithUserAgent(userAgent(s.config.GetAppName())),
	)
}

// clientContext makes oauth2 use the server's HTTP client.
func (s *Server) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

func userAgent(appName string) string {
	ua := strings.ToLower(strings.Join(strings.Fields(appName), "-"))
	if ua == "" {
		return "collaborator-audit-dashboard"
	}
	return ua
}
