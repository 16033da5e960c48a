package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/streamwatch/watchlist-api/internal/auth"
	"github.com/streamwatch/watchlist-api/internal/config"
	httpserver "github.com/streamwatch/watchlist-api/internal/http"
	"github.com/streamwatch/watchlist-api/internal/ratelimit"
	"github.com/streamwatch/watchlist-api/internal/rating"
	"github.com/streamwatch/watchlist-api/internal/repository"
	"github.com/streamwatch/watchlist-api/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config error")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", "watchlist-api").
		Logger()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DB.MaxConns),
		MinConns:               int32(cfg.DB.MinConns),
		MaxConnIdleTime:        time.Duration(cfg.DB.MaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DB.MaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DB.ConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DB.StatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DB.URL, storeOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	authMgr, err := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMins)*time.Minute)
	if err != nil {
		logger.Fatal().Err(err).Msg("init auth manager")
	}

	limiter := ratelimit.New(ratelimit.Limits{
		ratelimit.ScopeReviewListAnon: cfg.RateLimit.ReviewListAnonPerMin,
		ratelimit.ScopeReviewList:     cfg.RateLimit.ReviewListPerMin,
		ratelimit.ScopeReviewCreate:   cfg.RateLimit.ReviewCreatePerMin,
		ratelimit.ScopeReviewDetail:   cfg.RateLimit.ReviewDetailPerMin,
	})
	limiter.StartJanitor(ctx)

	repo := repository.New(st)
	agg := rating.NewAggregator(repo.Reviews, logger)
	server := httpserver.New(cfg, st, repo, agg, authMgr, limiter, logger)

	logger.Info().Str("port", cfg.Server.Port).Msg("starting server")

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}
