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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/kaizencycle/mobius-browser-shell/internal/auth"
	"github.com/kaizencycle/mobius-browser-shell/internal/catalog"
	"github.com/kaizencycle/mobius-browser-shell/internal/config"
	"github.com/kaizencycle/mobius-browser-shell/internal/db"
	"github.com/kaizencycle/mobius-browser-shell/internal/execution"
	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/learning"
	"github.com/kaizencycle/mobius-browser-shell/internal/ledger"
	"github.com/kaizencycle/mobius-browser-shell/internal/metrics"
	"github.com/kaizencycle/mobius-browser-shell/internal/rewards"
	"github.com/kaizencycle/mobius-browser-shell/internal/router"
	"github.com/kaizencycle/mobius-browser-shell/internal/validation"
	"github.com/kaizencycle/mobius-browser-shell/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	if err := db.Migrate(db.MigrateURL(cfg.DatabaseURL), logger); err != nil {
		slog.Error("Schema migration failed", "error", err)
		os.Exit(1)
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Integrity index: latest recorded snapshot, static fallback until the first refresh.
	snapshots := integrity.NewSnapshotRepository(pool)
	giiProvider := integrity.NewSnapshotProvider(snapshots, cfg.GIIStatic, logger)
	if gii, err := giiProvider.Current(ctx); err == nil {
		metrics.SetGII(gii)
		slog.Info("Integrity index loaded", "gii", gii)
	}

	riverClient, err := newRiverClient(pool, cfg, snapshots, logger)
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	// Ledger
	ledgerSvc := ledger.NewService(ledger.NewRepository(pool), giiProvider, logger)

	validator, err := validation.New()
	if err != nil {
		slog.Error("Meta schema validator init failed", "error", err)
		os.Exit(1)
	}

	// Auth
	authSvc := auth.NewService(auth.NewRepository(pool), []byte(cfg.JWTSecret), cfg.JWTTTL)
	authHandler := auth.NewHandler(authSvc, logger)

	walletHandler := wallet.NewHandler(ledgerSvc, validator, logger)
	learningHandler := learning.NewHandler(catalog.Default(), rewards.DefaultConfig(), giiProvider, ledgerSvc, logger)

	apiV1Router := router.New(authHandler, walletHandler, learningHandler, authSvc)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiV1Router)
	RegisterOpsRoutes(mux, pool, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (processes jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
		if err := riverClient.Stop(shutdownCtx); err != nil {
			slog.Error("River shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting HTTP server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}

// newRiverClient registers the integrity refresh worker and, when an MII
// endpoint is configured, schedules it periodically.
func newRiverClient(pool *pgxpool.Pool, cfg *config.Config, snapshots *integrity.SnapshotRepository, logger *slog.Logger) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, execution.NewRefreshIntegrityWorker(integrity.NewRemoteSource(cfg.GIISourceURL), snapshots, logger))

	var periodic []*river.PeriodicJob
	if cfg.GIISourceURL != "" {
		periodic = append(periodic, execution.PeriodicRefresh(cfg.GIIRefreshInterval))
		slog.Info("Integrity refresh scheduled", "source", cfg.GIISourceURL, "interval", cfg.GIIRefreshInterval.String())
	} else {
		slog.Warn("GII_SOURCE_URL not set; integrity index stays at the last recorded snapshot", "fallback", cfg.GIIStatic)
	}

	return river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RiverMaxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       logger,
	})
}
