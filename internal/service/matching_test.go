package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"cohortmatch/internal/cohort"
	"cohortmatch/internal/domain"
)

// memRepo records upserts so tests can assert persistence without SQLite.
type memRepo struct {
	upserts map[string]string
}

func (m *memRepo) Upsert(_ context.Context, id, ruleLine string) error {
	if m.upserts == nil {
		m.upserts = map[string]string{}
	}
	m.upserts[id] = ruleLine
	return nil
}

func (m *memRepo) List(context.Context) ([]domain.StoredCohort, error) { return nil, nil }
func (m *memRepo) Delete(context.Context, string) error               { return nil }

func fixtureTable(t *testing.T) *domain.EntityTable {
	t.Helper()
	table, err := domain.NewEntityTable([]domain.Entity{
		{EID: 1, FirstName: "John", LastName: "Lee", Age: 22, Country: "US", ZipCode: "91003",
			Emails: []string{"jlee@yahoo.com", "jl123@gmail.com"}},
		{EID: 2, FirstName: "Jane", LastName: "Chen", Age: 34, Country: "US", ZipCode: "91004",
			Emails: []string{"jchen@gmail.com"}},
		{EID: 5, FirstName: "Tom", LastName: "Tan", Age: 81, Country: "CH", ZipCode: "349999"},
	})
	require.NoError(t, err)
	return table
}

func fixtureStore(t *testing.T) *cohort.Store {
	t.Helper()
	store := cohort.NewStore()
	for _, line := range []string{
		"cohort:1\tlast_name:Chen\tage:[10,50]\tcountry:US",
		"cohort:2\tage:(15,45]\tcountry:CH\temails:hotmail.com",
		"cohort:3\tfirst_name:John\tzip_code:91003",
		"cohort:4\tcountry:US\temails:gmail.com",
	} {
		c, err := cohort.ParseRuleLine(line)
		require.NoError(t, err)
		store.Upsert(c)
	}
	return store
}

func newTestService(t *testing.T) (*MatchingService, *memRepo) {
	t.Helper()
	repo := &memRepo{}
	return NewMatchingService(fixtureTable(t), fixtureStore(t), repo, nil), repo
}

func TestMatchByEID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ids, err := svc.MatchByEID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"3", "4"}, ids)

	ids, err = svc.MatchByEID(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "4"}, ids)

	// Tom (81, CH, no emails) matches nothing.
	ids, err = svc.MatchByEID(ctx, 5)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestMatchByEID_UnknownEntity(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.MatchByEID(context.Background(), 404)
	require.True(t, errors.Is(err, domain.ErrEntityNotFound))
}

func TestAddCohort_PersistsAndMatches(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	before := len(svc.Cohorts(ctx))
	c, err := svc.AddCohort(ctx, "cohort:5\tlast_name:Lee\tage:(18,26)")
	require.NoError(t, err)
	require.Equal(t, "5", c.ID)
	require.Len(t, svc.Cohorts(ctx), before+1)

	// Persisted in canonical form.
	require.Equal(t, "cohort:5\tlast_name:Lee\tage:(18,26)", repo.upserts["5"])

	// And immediately eligible for matching.
	ids, err := svc.MatchByEID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"3", "4", "5"}, ids)
}

func TestAddCohort_Overwrite(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	before := len(svc.Cohorts(ctx))
	_, err := svc.AddCohort(ctx, "cohort:4\tcountry:JP")
	require.NoError(t, err)
	require.Len(t, svc.Cohorts(ctx), before)

	ids, err := svc.MatchByEID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, ids)
}

func TestAddCohort_BadRuleLine(t *testing.T) {
	svc, repo := newTestService(t)
	_, err := svc.AddCohort(context.Background(), "last_name:Lee")
	require.Error(t, err)
	require.Empty(t, repo.upserts)
}

func TestReplaceEntities(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	table, err := domain.NewEntityTable([]domain.Entity{
		{EID: 9, FirstName: "Amy", LastName: "Wu", Age: 40, Country: "SG", ZipCode: "018956"},
	})
	require.NoError(t, err)
	svc.ReplaceEntities(table)

	_, err = svc.Entity(ctx, 1)
	require.True(t, errors.Is(err, domain.ErrEntityNotFound))

	e, err := svc.Entity(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, "Amy", e.FirstName)
}
