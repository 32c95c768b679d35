package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kejani/api"
	"kejani/asset"
	"kejani/config"
	"kejani/db"
	"kejani/identity"
	"kejani/listing"
	"kejani/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}

	identityRepo := identity.NewRepository(pool)
	identitySvc := identity.NewService(identityRepo, cfg.TokenSecret, cfg.TokenTTL)

	sessions := identity.NewSessions(identitySvc)
	defer sessions.Close()

	// Resolve the session from any persisted token before serving; an
	// absent or stale token resolves to signed-out.
	if err := identitySvc.Resume(ctx, os.Getenv("KEJANI_SESSION_TOKEN")); err != nil {
		log.Warn("session resume failed, starting signed out", "error", err)
	}

	store := asset.NewPGStore(pool, cfg.BaseURL)
	uploader := asset.NewUploader(store)
	listingSvc := listing.NewService(listing.NewRepository(pool), uploader, log)
	collector := metrics.NewCollector()

	handler := api.NewRouter(api.RouterDeps{
		Log:       log,
		Identity:  identitySvc,
		Sessions:  sessions,
		Listings:  listingSvc,
		Assets:    store,
		Collector: collector,
		FeedLimit: cfg.PublicFeedLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
