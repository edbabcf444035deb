// Package app provides application-level wiring for the cohortmatch server
// and CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/config"
	"cohortmatch/internal/engine"
	"cohortmatch/internal/ingest"
	"cohortmatch/internal/repository"
	"cohortmatch/internal/service"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger. MetaDB and DuckDB may be nil, in which
// case cohort persistence and the stats surface are disabled respectively.
type Deps struct {
	Cfg    *config.Config
	MetaDB *sql.DB
	DuckDB *sql.DB
	Logger *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Matching  *service.MatchingService
	Stats     *engine.StatsEngine // nil when DuckDB is not provided
	Refresher *ingest.Refresher   // nil when no refresh schedule is set
}

// New ingests both input files, hydrates the cohort store (file rules
// first, then persisted runtime cohorts on top), and wires the services.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ingestor := ingest.New(cfg.EntitiesFile, cfg.CohortsFile, logger)

	table, err := ingestor.LoadEntities()
	if err != nil {
		return nil, err
	}

	fileCohorts, err := ingestor.LoadCohorts()
	if err != nil {
		return nil, err
	}
	store := cohort.NewStore()
	for _, c := range fileCohorts {
		store.Upsert(c)
	}

	var repo *repository.CohortRepo
	if deps.MetaDB != nil {
		repo = repository.NewCohortRepo(deps.MetaDB)

		// Runtime-added cohorts override file definitions with the same ID.
		stored, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("hydrate cohorts: %w", err)
		}
		for _, sc := range stored {
			c, err := cohort.ParseRuleLine(sc.RuleLine)
			if err != nil {
				return nil, fmt.Errorf("hydrate cohort %q: %w", sc.ID, err)
			}
			store.Upsert(c)
		}
		if len(stored) > 0 {
			logger.Info("persisted cohorts hydrated", "count", len(stored))
		}
	}

	a := &App{}
	if repo != nil {
		a.Matching = service.NewMatchingService(table, store, repo, logger)
	} else {
		a.Matching = service.NewMatchingService(table, store, nil, logger)
	}

	if deps.DuckDB != nil {
		a.Stats = engine.NewStatsEngine(deps.DuckDB, logger)
		if err := a.Stats.LoadEntities(ctx, cfg.EntitiesFile); err != nil {
			return nil, err
		}
	}

	if cfg.RefreshSchedule != "" {
		a.Refresher, err = ingest.NewRefresher(ingestor, a.Matching, cfg.RefreshSchedule, logger)
		if err != nil {
			return nil, fmt.Errorf("refresh schedule %q: %w", cfg.RefreshSchedule, err)
		}
	}

	return a, nil
}
