package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/questmap/geoquest/internal/config"
	"github.com/questmap/geoquest/internal/database"
	"github.com/questmap/geoquest/internal/geo"
	"github.com/questmap/geoquest/internal/migrations"
	"github.com/questmap/geoquest/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, db); err != nil {
			return fmt.Errorf("seeding demo catalog: %w", err)
		}
	}

	// --- HTTP Server ---
	store := server.NewSQLiteStore(db)
	srv := server.New(cfg.HTTPAddr, logger, db, store, server.TrackConfig{
		PollInterval:    cfg.PollInterval,
		FirstFixTimeout: cfg.FirstFixTimeout,
		Fallback:        geo.Position{Lat: cfg.FallbackLat, Lng: cfg.FallbackLng},
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
