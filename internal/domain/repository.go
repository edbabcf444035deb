package domain

import (
	"context"
	"time"
)

// StoredCohort is a cohort definition persisted in the metastore. The rule
// line is the canonical tab-separated "key:value" form; it is re-parsed at
// hydration time.
type StoredCohort struct {
	ID        string
	RuleLine  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CohortRepository persists cohort definitions added at runtime so they
// survive restarts.
type CohortRepository interface {
	Upsert(ctx context.Context, id, ruleLine string) error
	List(ctx context.Context) ([]StoredCohort, error)
	Delete(ctx context.Context, id string) error
}
