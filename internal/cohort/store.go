package cohort

import (
	"fmt"
	"sync"
)

// Store holds all cohort definitions and provides thread-safe matching.
// Insertion order is preserved: Matches returns cohort IDs in the order the
// cohorts were first added, which mirrors cohort-file order after boot.
type Store struct {
	mu      sync.RWMutex
	order   []string
	cohorts map[string]*Cohort
}

// NewStore creates an empty cohort store.
func NewStore() *Store {
	return &Store{cohorts: make(map[string]*Cohort)}
}

// Upsert adds a new cohort or overwrites the rules of an existing one.
// Overwriting keeps the cohort's original position.
func (s *Store) Upsert(c *Cohort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cohorts[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.cohorts[c.ID] = c
}

// Get returns the cohort with the given ID.
func (s *Store) Get(id string) (*Cohort, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cohorts[id]
	if !ok {
		return nil, fmt.Errorf("unknown cohort: %q", id)
	}
	return c, nil
}

// List returns all cohorts in insertion order.
func (s *Store) List() []*Cohort {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Cohort, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.cohorts[id])
	}
	return out
}

// Len returns the number of cohorts in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Matches returns the IDs of ALL cohorts the subject satisfies, in store
// order. An entity can belong to any number of cohorts; overlapping
// cohorts match independently.
func (s *Store) Matches(sub Subject) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, id := range s.order {
		if s.cohorts[id].Matches(sub) {
			ids = append(ids, id)
		}
	}
	return ids
}

// FirstMatch returns the first cohort the subject satisfies, for call sites
// that only need one.
func (s *Store) FirstMatch(sub Subject) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if s.cohorts[id].Matches(sub) {
			return id, true
		}
	}
	return "", false
}
