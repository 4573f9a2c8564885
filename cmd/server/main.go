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
	"github.com/jrsteele09/go-auth-gate/credentials/gormrepo"
	"github.com/jrsteele09/go-auth-gate/directory"
	"github.com/jrsteele09/go-auth-gate/internal/config"
	"github.com/jrsteele09/go-auth-gate/internal/logger"
	"github.com/jrsteele09/go-auth-gate/passwords"
	"github.com/jrsteele09/go-auth-gate/server"
	"github.com/jrsteele09/go-auth-gate/sessions"
	"github.com/jrsteele09/go-auth-gate/sessions/inmemory"
	"github.com/jrsteele09/go-auth-gate/sessions/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

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

	c, err := config.New()
	if err != nil {
		return err
	}
	logger.Init(c.GetLogLevel(), c.GetLogFormat())
	displayAppname(c.GetAppName())

	ctx := context.Background()

	db, err := gormrepo.Open(c.GetDatabaseURL())
	if err != nil {
		return err
	}
	creds := gormrepo.New(db)

	hasher, err := passwords.New(c, creds)
	if err != nil {
		return err
	}

	sessionRepo, closeSessions, err := openSessions(ctx, c)
	if err != nil {
		return err
	}
	defer closeSessions()

	opts := []server.Option{}
	if dir := c.GetDirectory(); dir.Enabled {
		d, err := directory.New(ctx, dir, creds)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithDirectory(d))
		log.Info().Str("issuer", dir.Issuer).Msg("Directory login enabled")
	}

	handler, err := server.New(c, server.Repos{Credentials: creds, Sessions: sessionRepo}, hasher, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(srv) }()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// openSessions picks the session store. In-memory sessions are swept on a
// cron schedule; Redis expires them itself.
func openSessions(ctx context.Context, c config.Config) (sessions.Repo, func(), error) {
	switch c.GetSessionBackend() {
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: c.GetRedisAddress()})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping %s: %w", c.GetRedisAddress(), err)
		}
		log.Info().Str("address", c.GetRedisAddress()).Msg("Using redis sessions")
		return redisstore.New(client, c.GetKeepAlive()), func() { _ = client.Close() }, nil

	case config.SessionBackendMemory:
		repo := inmemory.New()
		sweeper, err := sessions.NewSweeper(repo, c.GetKeepAlive(), c.GetSessionSweepSchedule())
		if err != nil {
			return nil, nil, err
		}
		sweeper.Start()
		log.Info().Str("schedule", c.GetSessionSweepSchedule()).Msg("Using in-memory sessions")
		return repo, sweeper.Stop, nil

	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", c.GetSessionBackend())
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
