package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"cohortmatch/internal/db"
	"cohortmatch/internal/domain"
)

func newTestRepo(t *testing.T) *CohortRepo {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "meta.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.RunMigrations(conn))
	return NewCohortRepo(conn)
}

func TestCohortRepo_UpsertAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "5", "cohort:5\tlast_name:Jackson\tage:(18,26)"))
	require.NoError(t, repo.Upsert(ctx, "6", "cohort:6\tcountry:US"))

	cohorts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 2)
	require.Equal(t, "5", cohorts[0].ID)
	require.Equal(t, "cohort:5\tlast_name:Jackson\tage:(18,26)", cohorts[0].RuleLine)
	require.False(t, cohorts[0].CreatedAt.IsZero())
}

func TestCohortRepo_UpsertOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "5", "cohort:5\tcountry:US"))
	require.NoError(t, repo.Upsert(ctx, "5", "cohort:5\tcountry:CH"))

	cohorts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts, 1)
	require.Equal(t, "cohort:5\tcountry:CH", cohorts[0].RuleLine)
}

func TestCohortRepo_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "5", "cohort:5\tcountry:US"))
	require.NoError(t, repo.Delete(ctx, "5"))

	cohorts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, cohorts)

	err = repo.Delete(ctx, "5")
	require.True(t, errors.Is(err, domain.ErrCohortNotFound))
}
