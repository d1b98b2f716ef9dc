// Command edusync starts the assignment-deadline synchronization service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/erfnzdeh/edusync/internal/api"
	"github.com/erfnzdeh/edusync/internal/config"
	"github.com/erfnzdeh/edusync/internal/gcal"
	"github.com/erfnzdeh/edusync/internal/migrate"
	"github.com/erfnzdeh/edusync/internal/quera"
	"github.com/erfnzdeh/edusync/internal/repository/postgres"
	"github.com/erfnzdeh/edusync/internal/scheduler"
	"github.com/erfnzdeh/edusync/internal/service"
	"github.com/erfnzdeh/edusync/migrations"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, restores auto-sync timers,
// and serves the HTTP command surface until interrupted.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.ListenAddr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN, migrations.FS); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	credRepo := postgres.NewCredRepo(db)
	stateRepo := postgres.NewStateRepo(db)

	// Collaborators
	flow := service.NewGoogleFlow(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	source := quera.NewClient(cfg.QueraBaseURL, cfg.RemoteTimeout, logger)
	gateway := func(ctx context.Context, tok *oauth2.Token) (gcal.Gateway, error) {
		return gcal.NewClient(ctx, flow.TokenSource(ctx, tok), cfg.RemoteTimeout)
	}

	// Services
	creds := service.NewCredentialService(credRepo, flow, logger)
	syncSvc := service.NewSyncService(creds, stateRepo, source, gateway, logger)

	sched := scheduler.New(syncSvc, stateRepo, cfg.SyncInterval, cfg.SyncInitialDelay, logger)
	sched.Start()
	restored, err := sched.Restore(ctx)
	if err != nil {
		logger.Fatal("restore auto-sync timers", zap.Error(err))
	}
	logger.Info("auto-sync restored", zap.Int("tenants", restored))

	app := service.NewApp(creds, stateRepo, source, syncSvc, sched, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.New(app, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		sched.Stop()
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
