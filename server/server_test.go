package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/gh-collaborator-audit/github"
	"github.com/jrsteele09/gh-collaborator-audit/internal/config"
	"github.com/jrsteele09/gh-collaborator-audit/internal/metrics"
	"github.com/jrsteele09/gh-collaborator-audit/server"
	"github.com/jrsteele09/gh-collaborator-audit/server/authflowrepo"
	usersessions "github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "test-client-id"
	testClientSecret = "test-client-secret"
	testAccessToken  = "gho_test_access_token"
	testBaseURL      = "http://localhost:3000"
	goodCode         = "good-code"
)

// fakeGitHub serves the OAuth token endpoint and the REST API routes the app uses.
type fakeGitHub struct {
	srv *httptest.Server

	mu            sync.Mutex
	tokenType     string
	scope         string
	revoked       bool
	repos         []github.Repository
	collaborators map[string][]github.Collaborator
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		tokenType: "bearer",
		scope:     "repo,read:org",
		repos: []github.Repository{
			{ID: 1, Name: "hello-world", FullName: "octocat/hello-world", Owner: github.Owner{Login: "octocat"}},
			{ID: 2, Name: "spoon-knife", FullName: "octocat/spoon-knife", Owner: github.Owner{Login: "octocat"}, Fork: true},
		},
		collaborators: map[string][]github.Collaborator{
			"octocat/hello-world": {
				{ID: 1, Login: "octocat", Permissions: github.Permissions{Admin: true}},
				{ID: 2, Login: "hubot", Permissions: github.Permissions{Push: true}},
			},
			"octocat/spoon-knife": {
				{ID: 3, Login: "alice", Permissions: github.Permissions{Pull: true}},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/oauth/access_token", f.handleToken)
	mux.HandleFunc("GET /user", f.authed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, github.User{ID: 1, Login: "octocat", Name: "The Octocat"})
	}))
	mux.HandleFunc("GET /user/repos", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		respondJSON(w, http.StatusOK, f.repos)
	}))
	mux.HandleFunc("GET /repos/{owner}/{repo}/collaborators", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		collabs, ok := f.collaborators[r.PathValue("owner")+"/"+r.PathValue("repo")]
		if !ok {
			respondJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		respondJSON(w, http.StatusOK, collabs)
	}))
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/collaborators/{user}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		key := r.PathValue("owner") + "/" + r.PathValue("repo")
		for i, c := range f.collaborators[key] {
			if c.Login == r.PathValue("user") {
				f.collaborators[key] = append(f.collaborators[key][:i], f.collaborators[key][i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		respondJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}))

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("client_id") != testClientID || r.PostForm.Get("client_secret") != testClientSecret {
		respondJSON(w, http.StatusOK, map[string]string{"error": "incorrect_client_credentials"})
		return
	}
	if r.PostForm.Get("code") != goodCode {
		respondJSON(w, http.StatusOK, map[string]string{"error": "bad_verification_code"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": testAccessToken,
		"token_type":   f.tokenType,
		"scope":        f.scope,
	})
}

func (f *fakeGitHub) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		revoked := f.revoked
		f.mu.Unlock()
		if revoked || r.Header.Get("Authorization") != "Bearer "+testAccessToken {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next(w, r)
	}
}

func (f *fakeGitHub) set(fn func(f *fakeGitHub)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type testApp struct {
	t         *testing.T
	handler   *server.Server
	http      *httptest.Server
	github    *fakeGitHub
	sessions  *usersessions.InMemoryRepo
	authState *authflowrepo.InMemoryRepo
	clock     *clockwork.FakeClock
	metrics   *metrics.Metrics
}

func loadTestConfig(t *testing.T, fake *fakeGitHub, env map[string]string) config.Config {
	t.Helper()
	t.Setenv("GITHUB_CLIENT_ID", testClientID)
	t.Setenv("GITHUB_CLIENT_SECRET", testClientSecret)
	t.Setenv("SESSION_SECRET", "a-long-enough-test-session-secret")
	t.Setenv("BASE_URL", testBaseURL)
	t.Setenv("ENV", "TEST")
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("SESSION_MAX_AGE", "8h")
	t.Setenv("GITHUB_AUTH_URL", fake.srv.URL+"/login/oauth/authorize")
	t.Setenv("GITHUB_TOKEN_URL", fake.srv.URL+"/login/oauth/access_token")
	t.Setenv("GITHUB_API_URL", fake.srv.URL)
	t.Setenv("RATE_LIMIT_RPS", "1000")
	t.Setenv("RATE_LIMIT_BURST", "1000")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, env map[string]string) *testApp {
	t.Helper()
	fake := newFakeGitHub(t)
	cfg := loadTestConfig(t, fake, env)

	clock := clockwork.NewFakeClockAt(time.Now())
	sessionRepo := usersessions.NewInMemoryRepo(clock, nil)
	authState := authflowrepo.NewInMemoryRepo(clock, authflowrepo.DefaultTTL)
	m := metrics.New()
	s, err := server.New(cfg, sessionRepo, authState, m, server.WithClock(clock))
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	return &testApp{
		t:         t,
		handler:   s,
		http:      ts,
		github:    fake,
		sessions:  sessionRepo,
		authState: authState,
		clock:     clock,
		metrics:   m,
	}
}

// newBrowser returns a client with a cookie jar that does not follow redirects.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type response struct {
	status int
	header http.Header
	body   string
}

func (a *testApp) do(c *http.Client, req *http.Request) response {
	a.t.Helper()
	resp, err := c.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: string(body)}
}

func (a *testApp) get(c *http.Client, path string) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.http.URL+path, nil)
	require.NoError(a.t, err)
	return a.do(c, req)
}

func (a *testApp) postJSON(c *http.Client, path, body, csrf string) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.http.URL+path, strings.NewReader(body))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	return a.do(c, req)
}

func (a *testApp) postForm(c *http.Client, path string, form url.Values) response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.http.URL+path, strings.NewReader(form.Encode()))
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(c, req)
}

// startLogin follows /auth/login and returns the state GitHub would echo back.
func (a *testApp) startLogin(c *http.Client, path string) string {
	a.t.Helper()
	resp := a.get(c, path)
	require.Equal(a.t, http.StatusFound, resp.status)

	loc, err := url.Parse(resp.header.Get("Location"))
	require.NoError(a.t, err)
	require.Equal(a.t, a.github.srv.URL+"/login/oauth/authorize", loc.Scheme+"://"+loc.Host+loc.Path)

	q := loc.Query()
	require.Equal(a.t, testClientID, q.Get("client_id"))
	require.Equal(a.t, testBaseURL+"/auth/callback", q.Get("redirect_uri"))
	require.Equal(a.t, "repo read:org", q.Get("scope"))
	require.NotEmpty(a.t, q.Get("state"))
	return q.Get("state")
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

// login runs the whole OAuth flow and returns the session's CSRF token.
func (a *testApp) login(c *http.Client) string {
	a.t.Helper()
	state := a.startLogin(c, server.RouteAuthLogin)

	resp := a.get(c, server.RouteCallback+"?code="+goodCode+"&state="+url.QueryEscape(state))
	require.Equal(a.t, http.StatusSeeOther, resp.status, resp.body)
	require.Equal(a.t, server.RouteDashboard, resp.header.Get("Location"))

	resp = a.get(c, server.RouteDashboard)
	require.Equal(a.t, http.StatusOK, resp.status, resp.body)
	m := csrfMeta.FindStringSubmatch(resp.body)
	require.Len(a.t, m, 2, "dashboard exposes the CSRF token")
	return m[1]
}
