package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/gh-collaborator-audit/internal/config"
	"github.com/jrsteele09/gh-collaborator-audit/internal/logging"
	"github.com/jrsteele09/gh-collaborator-audit/internal/metrics"
	"github.com/jrsteele09/gh-collaborator-audit/server"
	"github.com/jrsteele09/gh-collaborator-audit/server/authflowrepo"
	"github.com/jrsteele09/gh-collaborator-audit/sessions"
	"github.com/jrsteele09/gh-collaborator-audit/sessions/redisstore"
	"github.com/rs/zerolog/log"
)

const sweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	logging.Init(c.GetLogLevel(), c.GetLogFormat())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	m := metrics.New()

	sessionRepo, closeSessions, err := newSessionRepo(ctx, c, clock, m)
	if err != nil {
		return err
	}
	defer closeSessions()

	authState := authflowrepo.NewInMemoryRepo(clock, c.GetAuthFlowTimeout())
	go authState.Run(ctx, sweepInterval)

	handler, err := server.New(c, sessionRepo, authState, m, server.WithClock(clock))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	go handler.RunLimiterCleanup(ctx)

	srv := &http.Server{
		Addr:              c.GetListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

// newSessionRepo selects the session store named by SESSION_STORE.
func newSessionRepo(ctx context.Context, c config.Config, clock clockwork.Clock, m *metrics.Metrics) (sessions.Repo, func(), error) {
	if c.GetSessionStore() == config.SessionStoreRedis {
		rdb, err := redisstore.NewClient(ctx, c.GetRedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("redisstore.NewClient: %w", err)
		}
		log.Info().Msg("Using Redis session store")
		return redisstore.New(rdb, clock), func() { _ = rdb.Close() }, nil
	}

	repo := sessions.NewInMemoryRepo(clock, m)
	go repo.Run(ctx, sweepInterval)
	log.Info().Msg("Using in-memory session store")
	return repo, func() {}, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
