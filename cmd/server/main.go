// Package main is the entry point for the cohortmatch HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"cohortmatch/internal/api"
	"cohortmatch/internal/app"
	"cohortmatch/internal/config"
	"cohortmatch/internal/db"
	"cohortmatch/internal/engine"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	metaDB, err := db.OpenSQLite(cfg.MetaDBPath)
	if err != nil {
		return err
	}
	defer metaDB.Close()
	if err := db.RunMigrations(metaDB); err != nil {
		return err
	}

	duckDB, err := engine.Open()
	if err != nil {
		return err
	}
	defer duckDB.Close()

	a, err := app.New(ctx, app.Deps{
		Cfg:    cfg,
		MetaDB: metaDB,
		DuckDB: duckDB,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if a.Refresher != nil {
		a.Refresher.Start()
		defer a.Refresher.Stop()
	}

	handler := api.NewHandler(a.Matching, a.Stats, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(handler, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http api listening", "addr", cfg.ListenAddr, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
