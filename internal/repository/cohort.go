// Package repository implements metastore persistence over database/sql.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cohortmatch/internal/domain"
)

// CohortRepo persists cohort definitions in the SQLite metastore.
type CohortRepo struct {
	db *sql.DB
}

// NewCohortRepo creates a CohortRepo backed by the given connection.
func NewCohortRepo(db *sql.DB) *CohortRepo {
	return &CohortRepo{db: db}
}

var _ domain.CohortRepository = (*CohortRepo)(nil)

// Upsert inserts the cohort definition or overwrites an existing one.
func (r *CohortRepo) Upsert(ctx context.Context, id, ruleLine string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cohorts (id, rule_line) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   rule_line = excluded.rule_line,
		   updated_at = CURRENT_TIMESTAMP`,
		id, ruleLine)
	if err != nil {
		return fmt.Errorf("upsert cohort %q: %w", id, err)
	}
	return nil
}

// List returns all persisted cohorts ordered by creation time.
func (r *CohortRepo) List(ctx context.Context) ([]domain.StoredCohort, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, rule_line, created_at, updated_at
		 FROM cohorts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	defer rows.Close()

	var out []domain.StoredCohort
	for rows.Next() {
		var c domain.StoredCohort
		if err := rows.Scan(&c.ID, &c.RuleLine, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a persisted cohort definition.
func (r *CohortRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cohorts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cohort %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("cohort %q: %w", id, domain.ErrCohortNotFound)
	}
	return nil
}
