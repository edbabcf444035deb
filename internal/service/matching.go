// Package service orchestrates entity lookup, cohort matching, and cohort
// persistence.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/domain"
)

// MatchingService is the core API surface: it owns the current entity table
// and the cohort store, and mirrors runtime cohort changes into the
// metastore when one is configured.
type MatchingService struct {
	mu       sync.RWMutex
	entities *domain.EntityTable

	store  *cohort.Store
	repo   domain.CohortRepository // nil when running without a metastore
	logger *slog.Logger
}

// NewMatchingService creates a service over the given table and store.
// repo may be nil; cohort changes are then in-memory only.
func NewMatchingService(entities *domain.EntityTable, store *cohort.Store, repo domain.CohortRepository, logger *slog.Logger) *MatchingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchingService{
		entities: entities,
		store:    store,
		repo:     repo,
		logger:   logger.With("component", "matching"),
	}
}

// table returns the current entity table under the read lock.
func (s *MatchingService) table() *domain.EntityTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities
}

// ReplaceEntities atomically swaps in a freshly ingested entity table.
func (s *MatchingService) ReplaceEntities(t *domain.EntityTable) {
	s.mu.Lock()
	s.entities = t
	s.mu.Unlock()
	s.logger.Info("entity table replaced", "count", t.Len())
}

// Entity returns the entity with the given id.
func (s *MatchingService) Entity(ctx context.Context, eid int64) (*domain.Entity, error) {
	return s.table().ByEID(eid)
}

// Entities returns all entities in file order.
func (s *MatchingService) Entities(ctx context.Context) []domain.Entity {
	return s.table().All()
}

// Cohorts returns all cohorts in store order.
func (s *MatchingService) Cohorts(ctx context.Context) []*cohort.Cohort {
	return s.store.List()
}

// MatchByEID returns the IDs of all cohorts the entity belongs to, in
// cohort table order.
func (s *MatchingService) MatchByEID(ctx context.Context, eid int64) ([]string, error) {
	e, err := s.table().ByEID(eid)
	if err != nil {
		return nil, err
	}
	ids := s.store.Matches(e)
	s.logger.Debug("matched entity", "eid", eid, "cohorts", ids)
	return ids, nil
}

// AddCohort parses a rule line, upserts the cohort into the store, and
// persists it. The cohort is eligible for matching as soon as this returns.
func (s *MatchingService) AddCohort(ctx context.Context, ruleLine string) (*cohort.Cohort, error) {
	c, err := cohort.ParseRuleLine(ruleLine)
	if err != nil {
		return nil, fmt.Errorf("add cohort: %w", err)
	}

	s.store.Upsert(c)
	if s.repo != nil {
		if err := s.repo.Upsert(ctx, c.ID, c.RuleLine()); err != nil {
			return nil, fmt.Errorf("add cohort: persist: %w", err)
		}
	}

	s.logger.Info("cohort upserted", "id", c.ID, "rules", len(c.Rules))
	return c, nil
}
