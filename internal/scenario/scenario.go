// Package scenario runs the embedded acceptance checks against the input
// files, printing one PASS/FAIL line per check.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/domain"
	"cohortmatch/internal/ingest"
	"cohortmatch/internal/tabular"
)

// Result is the outcome of one scenario. Err is nil on pass.
type Result struct {
	Name string
	Err  error
}

// Run executes the embedded scenarios against the given entity and cohort
// files and returns one result per scenario.
func Run(entitiesPath, cohortsPath string) []Result {
	scenarios := []struct {
		name string
		fn   func(entitiesPath, cohortsPath string) error
	}{
		{"entity count matches data lines", checkEntityCount},
		{"reload is deterministic", checkReloadDeterministic},
		{"age interval boundaries", checkAgeBoundaries},
		{"add cohort grows table and matches", checkAddCohort},
		{"overwrite cohort keeps table size", checkOverwriteCohort},
		{"malformed row is a reported failure", checkMalformedRow},
	}

	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		results = append(results, Result{Name: s.name, Err: s.fn(entitiesPath, cohortsPath)})
	}
	return results
}

// Report writes PASS/FAIL lines to w and returns true when all passed.
func Report(w io.Writer, results []Result) bool {
	ok := true
	for _, r := range results {
		if r.Err != nil {
			ok = false
			fmt.Fprintf(w, "FAIL  %s: %v\n", r.Name, r.Err)
		} else {
			fmt.Fprintf(w, "PASS  %s\n", r.Name)
		}
	}
	return ok
}

func checkEntityCount(entitiesPath, _ string) error {
	raw, err := os.ReadFile(entitiesPath)
	if err != nil {
		return err
	}
	lines := 0
	for _, l := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}

	table, err := ingest.New(entitiesPath, "", nil).LoadEntities()
	if err != nil {
		return err
	}
	if want := lines - 1; table.Len() != want {
		return fmt.Errorf("loaded %d entities, file has %d data lines", table.Len(), want)
	}
	return nil
}

func checkReloadDeterministic(entitiesPath, _ string) error {
	ing := ingest.New(entitiesPath, "", nil)
	first, err := ing.LoadEntities()
	if err != nil {
		return err
	}
	second, err := ing.LoadEntities()
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(first.All(), second.All()) {
		return errors.New("two loads of the same file differ")
	}
	return nil
}

func checkAgeBoundaries(_, _ string) error {
	store := cohort.NewStore()
	c, err := cohort.ParseRuleLine("cohort:adults\tage:[18,65)")
	if err != nil {
		return err
	}
	store.Upsert(c)

	inRange := &domain.Entity{EID: 100, Age: 34}
	if got := store.Matches(inRange); !reflect.DeepEqual(got, []string{"adults"}) {
		return fmt.Errorf("age 34 should match [18,65), got %v", got)
	}

	tooOld := &domain.Entity{EID: 101, Age: 70}
	if got := store.Matches(tooOld); len(got) != 0 {
		return fmt.Errorf("age 70 should not match [18,65), got %v", got)
	}

	atUpper := &domain.Entity{EID: 102, Age: 65}
	if got := store.Matches(atUpper); len(got) != 0 {
		return fmt.Errorf("age 65 should be excluded by the open upper bound, got %v", got)
	}
	return nil
}

func checkAddCohort(entitiesPath, cohortsPath string) error {
	ing := ingest.New(entitiesPath, cohortsPath, nil)
	table, err := ing.LoadEntities()
	if err != nil {
		return err
	}
	cohorts, err := ing.LoadCohorts()
	if err != nil {
		return err
	}
	store := cohort.NewStore()
	for _, c := range cohorts {
		store.Upsert(c)
	}

	before := store.Len()
	added, err := cohort.ParseRuleLine("cohort:everyone\tage:[0,200]")
	if err != nil {
		return err
	}
	store.Upsert(added)
	if store.Len() != before+1 {
		return fmt.Errorf("store size %d after add, want %d", store.Len(), before+1)
	}

	for _, e := range table.All() {
		ids := store.Matches(&e)
		if !contains(ids, "everyone") {
			return fmt.Errorf("entity %d should match the added cohort, got %v", e.EID, ids)
		}
	}
	return nil
}

func checkOverwriteCohort(_, cohortsPath string) error {
	cohorts, err := ingest.New("", cohortsPath, nil).LoadCohorts()
	if err != nil {
		return err
	}
	if len(cohorts) == 0 {
		return errors.New("cohort file is empty")
	}
	store := cohort.NewStore()
	for _, c := range cohorts {
		store.Upsert(c)
	}

	before := store.Len()
	replacement := &cohort.Cohort{ID: cohorts[0].ID}
	store.Upsert(replacement)
	if store.Len() != before {
		return fmt.Errorf("store size changed on overwrite: %d -> %d", before, store.Len())
	}
	got, err := store.Get(cohorts[0].ID)
	if err != nil {
		return err
	}
	if len(got.Rules) != 0 {
		return errors.New("overwrite did not replace the cohort's rules")
	}
	return nil
}

func checkMalformedRow(_, _ string) error {
	dir, err := os.MkdirTemp("", "scenario")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "entities.tsv")
	content := "eid\tfirst_name\tlast_name\tage\tcountry\tzip_code\temails\n1\tJohn\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}

	_, err = ingest.New(path, "", nil).LoadEntities()
	if err == nil {
		return errors.New("2-field row against a 7-column header loaded without error")
	}
	if !errors.Is(err, tabular.ErrFieldCount) {
		return fmt.Errorf("want a field-count error, got: %w", err)
	}
	return nil
}

func contains(ids []string, want string) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
