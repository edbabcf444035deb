package scenario

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/ingest"
)

// Suite is a YAML-defined set of expected match outcomes against a pair of
// input files. File paths inside the suite override the defaults passed to
// RunSuite, so a suite can carry its own fixtures.
type Suite struct {
	Entities string        `yaml:"entities,omitempty"`
	Cohorts  string        `yaml:"cohorts,omitempty"`
	Expect   []Expectation `yaml:"expect"`
}

// Expectation states which cohort IDs a given entity must match, in
// cohort-definition order.
type Expectation struct {
	EID     int64    `yaml:"eid"`
	Cohorts []string `yaml:"cohorts"`
}

// LoadSuite parses a YAML suite file.
func LoadSuite(path string) (*Suite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	var s Suite
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse suite %s: %w", path, err)
	}
	if len(s.Expect) == 0 {
		return nil, fmt.Errorf("suite %s has no expectations", path)
	}
	return &s, nil
}

// RunSuite evaluates every expectation in the suite and returns one result
// per expectation.
func RunSuite(s *Suite, entitiesPath, cohortsPath string) ([]Result, error) {
	if s.Entities != "" {
		entitiesPath = s.Entities
	}
	if s.Cohorts != "" {
		cohortsPath = s.Cohorts
	}

	ing := ingest.New(entitiesPath, cohortsPath, nil)
	table, err := ing.LoadEntities()
	if err != nil {
		return nil, err
	}
	cohorts, err := ing.LoadCohorts()
	if err != nil {
		return nil, err
	}
	store := cohort.NewStore()
	for _, c := range cohorts {
		store.Upsert(c)
	}

	results := make([]Result, 0, len(s.Expect))
	for _, exp := range s.Expect {
		name := fmt.Sprintf("entity %d matches %v", exp.EID, exp.Cohorts)
		e, err := table.ByEID(exp.EID)
		if err != nil {
			results = append(results, Result{Name: name, Err: err})
			continue
		}
		got := store.Matches(e)
		if got == nil {
			got = []string{}
		}
		want := exp.Cohorts
		if want == nil {
			want = []string{}
		}
		if !reflect.DeepEqual(got, want) {
			err = fmt.Errorf("got %v", got)
		} else {
			err = nil
		}
		results = append(results, Result{Name: name, Err: err})
	}
	return results, nil
}
