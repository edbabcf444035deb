// Package engine runs fixed analytical queries over the entities file using
// an in-memory DuckDB instance.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"cohortmatch/internal/cohort"
)

// Open opens an in-memory DuckDB database. The caller owns the handle.
func Open() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return db, nil
}

// StatsEngine answers aggregate questions about the loaded entity set. It
// runs only fixed queries; there is no user-supplied SQL surface.
type StatsEngine struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStatsEngine creates a StatsEngine over the given DuckDB handle.
func NewStatsEngine(db *sql.DB, logger *slog.Logger) *StatsEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsEngine{db: db, logger: logger.With("component", "engine")}
}

// LoadEntities (re)creates the entities table from the TSV file via
// DuckDB's CSV reader.
func (e *StatsEngine) LoadEntities(ctx context.Context, path string) error {
	_, err := e.db.ExecContext(ctx,
		`CREATE OR REPLACE TABLE entities AS
		 SELECT * FROM read_csv(?, delim = '\t', header = true)`, path)
	if err != nil {
		return fmt.Errorf("read_csv %s: %w", path, err)
	}
	e.logger.Info("entities table loaded", "path", path)
	return nil
}

// CountryCount is one row of the per-country breakdown.
type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// Stats is the aggregate summary served by the stats endpoint.
type Stats struct {
	Entities  int64          `json:"entities"`
	ByCountry []CountryCount `json:"by_country"`
}

// EntityCount returns the total number of loaded entities.
func (e *StatsEngine) EntityCount(ctx context.Context) (int64, error) {
	var n int64
	err := e.db.QueryRowContext(ctx, `SELECT count(*) FROM entities`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("entity count: %w", err)
	}
	return n, nil
}

// CountByCountry returns entity counts per country, largest first.
func (e *StatsEngine) CountByCountry(ctx context.Context) ([]CountryCount, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT country, count(*) AS n
		 FROM entities GROUP BY country ORDER BY n DESC, country`)
	if err != nil {
		return nil, fmt.Errorf("count by country: %w", err)
	}
	defer rows.Close()

	var out []CountryCount
	for rows.Next() {
		var c CountryCount
		if err := rows.Scan(&c.Country, &c.Count); err != nil {
			return nil, fmt.Errorf("scan country count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountInAgeInterval returns how many entities fall inside the interval,
// honouring its bound exclusivity.
func (e *StatsEngine) CountInAgeInterval(ctx context.Context, iv cohort.Interval) (int64, error) {
	lo, hi := ">=", "<="
	if iv.MinExclusive {
		lo = ">"
	}
	if iv.MaxExclusive {
		hi = "<"
	}

	// Operators are chosen from fixed strings above; the bounds are bound
	// parameters.
	query := fmt.Sprintf(`SELECT count(*) FROM entities WHERE age %s ? AND age %s ?`, lo, hi)
	var n int64
	if err := e.db.QueryRowContext(ctx, query, iv.Min, iv.Max).Scan(&n); err != nil {
		return 0, fmt.Errorf("age interval count: %w", err)
	}
	return n, nil
}

// Summary bundles the fixed aggregates for the stats surface.
func (e *StatsEngine) Summary(ctx context.Context) (*Stats, error) {
	total, err := e.EntityCount(ctx)
	if err != nil {
		return nil, err
	}
	byCountry, err := e.CountByCountry(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Entities: total, ByCountry: byCountry}, nil
}
