package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	entitiesFixture = "testdata/entities.tsv"
	cohortsFixture  = "testdata/entity_cohorts.tsv"
)

// captureStdout redirects os.Stdout to a pipe and returns a function that
// restores stdout and returns the captured output.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	return func() string {
		_ = w.Close()
		<-done
		os.Stdout = old
		return buf.String()
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	restore := captureStdout(t)
	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return restore(), err
}

func TestEntitiesCmd(t *testing.T) {
	out, err := runCLI(t, "entities", "--entities", entitiesFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "John Lee")
	assert.Contains(t, out, "Tom Tan")
}

func TestMatchCmd_SingleEntity(t *testing.T) {
	out, err := runCLI(t, "match", "--eid", "1",
		"--entities", entitiesFixture, "--cohorts", cohortsFixture, "--output", "json")
	require.NoError(t, err)

	var got struct {
		EID     int64    `json:"eid"`
		Cohorts []string `json:"cohorts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(1), got.EID)
	assert.Equal(t, []string{"3", "4"}, got.Cohorts)
}

func TestMatchCmd_AllEntities(t *testing.T) {
	out, err := runCLI(t, "match",
		"--entities", entitiesFixture, "--cohorts", cohortsFixture, "--output", "json")
	require.NoError(t, err)

	var got []struct {
		EID     int64    `json:"eid"`
		Cohorts []string `json:"cohorts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, []string{"1", "4"}, got[1].Cohorts)
	assert.Empty(t, got[2].Cohorts)
}

func TestMatchCmd_UnknownEntity(t *testing.T) {
	_, err := runCLI(t, "match", "--eid", "999",
		"--entities", entitiesFixture, "--cohorts", cohortsFixture)
	assert.Error(t, err)
}

func TestAddCohortCmd(t *testing.T) {
	meta := filepath.Join(t.TempDir(), "meta.sqlite")

	_, err := runCLI(t, "add-cohort", "cohort:5\tcountry:CH",
		"--cohorts", cohortsFixture, "--meta-db", meta)
	require.NoError(t, err)

	// The persisted cohort overrides nothing but shows up in the listing.
	out, err := runCLI(t, "cohorts",
		"--cohorts", cohortsFixture, "--meta-db", meta)
	require.NoError(t, err)
	assert.Contains(t, out, "cohort:5\tcountry:CH")

	// And Tom (CH) now matches it.
	out, err = runCLI(t, "match", "--eid", "5",
		"--entities", entitiesFixture, "--cohorts", cohortsFixture,
		"--meta-db", meta, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"5"`)
}

func TestAddCohortCmd_NoMetastore(t *testing.T) {
	_, err := runCLI(t, "add-cohort", "cohort:5\tcountry:CH",
		"--cohorts", cohortsFixture)
	assert.ErrorContains(t, err, "metastore")
}

func TestAddCohortCmd_BadRuleLine(t *testing.T) {
	meta := filepath.Join(t.TempDir(), "meta.sqlite")
	_, err := runCLI(t, "add-cohort", "country:US", "--meta-db", meta)
	assert.Error(t, err)
}

func TestCheckCmd(t *testing.T) {
	out, err := runCLI(t, "check",
		"--entities", entitiesFixture, "--cohorts", cohortsFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.NotContains(t, out, "FAIL")
}

func TestCheckCmd_Suite(t *testing.T) {
	out, err := runCLI(t, "check", "--suite", "testdata/suite.yaml",
		"--entities", entitiesFixture, "--cohorts", cohortsFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
}

func TestCheckCmd_FailureExitsNonZero(t *testing.T) {
	// A cohorts file with a malformed rule line fails the load-dependent checks.
	dir := t.TempDir()
	bad := filepath.Join(dir, "entity_cohorts.tsv")
	require.NoError(t, os.WriteFile(bad, []byte("country:US\n"), 0644))

	out, err := runCLI(t, "check",
		"--entities", entitiesFixture, "--cohorts", bad)
	assert.Error(t, err)
	assert.Contains(t, out, "FAIL")
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cohortmatch version")
}

func TestBadOutputFormat(t *testing.T) {
	_, err := runCLI(t, "entities", "--output", "xml",
		"--entities", entitiesFixture)
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestStatsCmd(t *testing.T) {
	out, err := runCLI(t, "stats",
		"--entities", entitiesFixture, "--output", "json")
	require.NoError(t, err)

	var got struct {
		Entities  int64 `json:"entities"`
		ByCountry []struct {
			Country string `json:"country"`
			Count   int64  `json:"count"`
		} `json:"by_country"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(3), got.Entities)
	require.Len(t, got.ByCountry, 2)
	assert.Equal(t, "US", got.ByCountry[0].Country)
}

func TestStatsCmd_AgeInterval(t *testing.T) {
	// John (22) and Jane (34) fall inside, Tom (81) does not.
	out, err := runCLI(t, "stats", "--age", "[18,65)",
		"--entities", entitiesFixture, "--output", "json")
	require.NoError(t, err)

	var got struct {
		InAgeInterval int64 `json:"in_age_interval"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, int64(2), got.InAgeInterval)
}

func TestStatsCmd_BadInterval(t *testing.T) {
	_, err := runCLI(t, "stats", "--age", "18-65",
		"--entities", entitiesFixture)
	assert.Error(t, err)
}
