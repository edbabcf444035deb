// Package ingest loads the entity and cohort files from disk into their
// in-memory tables.
package ingest

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/domain"
	"cohortmatch/internal/tabular"
)

// EntitySchema declares the column types of the entities file. zip_code is
// deliberately a string: inference would strip leading zeros.
var EntitySchema = tabular.Schema{
	"eid":        tabular.KindInt,
	"first_name": tabular.KindString,
	"last_name":  tabular.KindString,
	"age":        tabular.KindInt,
	"country":    tabular.KindString,
	"zip_code":   tabular.KindString,
	"emails":     tabular.KindList,
}

// Ingestor reads the two input files. Each load opens, reads to completion,
// and closes the file before returning.
type Ingestor struct {
	entitiesPath string
	cohortsPath  string
	logger       *slog.Logger
}

// New creates an Ingestor for the given file paths.
func New(entitiesPath, cohortsPath string, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		entitiesPath: entitiesPath,
		cohortsPath:  cohortsPath,
		logger:       logger.With("component", "ingest"),
	}
}

// EntitiesPath returns the configured entities file path.
func (i *Ingestor) EntitiesPath() string { return i.entitiesPath }

// LoadEntities parses the entities file into an ordered, eid-indexed table.
func (i *Ingestor) LoadEntities() (*domain.EntityTable, error) {
	recs, err := tabular.ReadFile(i.entitiesPath, EntitySchema)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}

	entities := make([]domain.Entity, 0, len(recs))
	for n, rec := range recs {
		e, err := BindEntity(rec)
		if err != nil {
			return nil, fmt.Errorf("load entities: record %d: %w", n+1, err)
		}
		entities = append(entities, e)
	}

	table, err := domain.NewEntityTable(entities)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	i.logger.Info("entities loaded", "path", i.entitiesPath, "count", table.Len())
	return table, nil
}

// LoadCohorts parses the headerless cohort rules file, one tab-separated
// "key:value" rule line per row, preserving file order.
func (i *Ingestor) LoadCohorts() ([]*cohort.Cohort, error) {
	f, err := os.Open(i.cohortsPath)
	if err != nil {
		return nil, fmt.Errorf("load cohorts: %w", err)
	}
	defer f.Close()

	var cohorts []*cohort.Cohort
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}
		c, err := cohort.ParseRuleLine(text)
		if err != nil {
			return nil, fmt.Errorf("load cohorts: %s:%d: %w", i.cohortsPath, line, err)
		}
		cohorts = append(cohorts, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load cohorts: %w", err)
	}
	i.logger.Info("cohorts loaded", "path", i.cohortsPath, "count", len(cohorts))
	return cohorts, nil
}

// BindEntity maps one tabular record onto the entity schema, reporting
// missing or mistyped columns.
func BindEntity(rec tabular.Record) (domain.Entity, error) {
	var e domain.Entity
	var err error

	if e.EID, err = intField(rec, "eid"); err != nil {
		return domain.Entity{}, err
	}
	if e.FirstName, err = stringField(rec, "first_name"); err != nil {
		return domain.Entity{}, err
	}
	if e.LastName, err = stringField(rec, "last_name"); err != nil {
		return domain.Entity{}, err
	}
	if e.Age, err = intField(rec, "age"); err != nil {
		return domain.Entity{}, err
	}
	if e.Country, err = stringField(rec, "country"); err != nil {
		return domain.Entity{}, err
	}
	if e.ZipCode, err = stringField(rec, "zip_code"); err != nil {
		return domain.Entity{}, err
	}

	emails, ok := rec.Get("emails")
	if !ok || emails.Kind != tabular.KindList {
		return domain.Entity{}, fmt.Errorf("column %q: missing or not a list", "emails")
	}
	e.Emails = emails.List

	return e, nil
}

func intField(rec tabular.Record, col string) (int64, error) {
	v, ok := rec.Get(col)
	if !ok || v.Kind != tabular.KindInt {
		return 0, fmt.Errorf("column %q: missing or not an integer", col)
	}
	return v.Int, nil
}

func stringField(rec tabular.Record, col string) (string, error) {
	v, ok := rec.Get(col)
	if !ok || v.Kind != tabular.KindString {
		return "", fmt.Errorf("column %q: missing or not a string", col)
	}
	return v.Str, nil
}
