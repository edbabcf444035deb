package ingest

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"cohortmatch/internal/domain"
)

// EntitySink receives freshly loaded entity tables. Implemented by the
// matching service, which swaps the table atomically.
type EntitySink interface {
	ReplaceEntities(*domain.EntityTable)
}

// Refresher re-reads the entities file on a cron schedule and pushes the
// new table into the sink. A failed read keeps the previous table.
type Refresher struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewRefresher schedules periodic entity reloads. schedule is a cron
// expression (robfig syntax, e.g. "@every 5m").
func NewRefresher(ing *Ingestor, sink EntitySink, schedule string, logger *slog.Logger) (*Refresher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Refresher{
		cron:   cron.New(),
		logger: logger.With("component", "refresher"),
	}

	_, err := r.cron.AddFunc(schedule, func() {
		table, err := ing.LoadEntities()
		if err != nil {
			r.logger.Warn("scheduled entity refresh failed, keeping previous table", "error", err)
			return
		}
		sink.ReplaceEntities(table)
		r.logger.Info("entity table refreshed", "count", table.Len())
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins the refresh schedule.
func (r *Refresher) Start() { r.cron.Start() }

// Stop halts the schedule, waiting for a running refresh to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
