package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournal_Open_CreatesDirectory(t *testing.T) {
	// Given: a journal path in a directory that does not exist yet
	path := filepath.Join(t.TempDir(), "nested", "deep", "journal.db")

	// When: opening the journal
	j, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	// Then: the database file and its directories exist
	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, path, j.Path())
}

func TestJournal_RecordRun_AssignsIDAndStart(t *testing.T) {
	// Given: an open journal and a run with no ID or start time
	j := openTestJournal(t)
	run := &Run{
		Collection: "employees",
		CSVPath:    "data/employee_data.csv",
		Status:     StatusOK,
	}

	// When: recording the run
	err := j.RecordRun(context.Background(), run)
	require.NoError(t, err)

	// Then: an ID and start time were assigned
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())
}

func TestJournal_RecordRun_PreservesProvidedID(t *testing.T) {
	// Given: a run that already carries an ID
	j := openTestJournal(t)
	run := &Run{
		ID:         "run-fixed-id",
		Collection: "employees",
		Status:     StatusOK,
	}

	// When: recording it
	err := j.RecordRun(context.Background(), run)
	require.NoError(t, err)

	// Then: the ID is unchanged and round-trips
	runs, err := j.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-fixed-id", runs[0].ID)
}

func TestJournal_RecordRun_RoundTrip(t *testing.T) {
	// Given: a failed run with every field set
	j := openTestJournal(t)
	started := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	run := &Run{
		Collection: "employees-alt",
		CSVPath:    "exports/q1/employee_data.csv",
		Excluded:   "Annual Salary",
		StartedAt:  started,
		DurationMS: 4231,
		Loaded:     961,
		Indexed:    950,
		Deduped:    39,
		Skipped:    11,
		Status:     StatusFailed,
		Error:      "batch contains 3 null value(s), first at row 14 column \"Gender\"; aborting",
	}

	// When: recording and reading it back
	require.NoError(t, j.RecordRun(context.Background(), run))
	runs, err := j.RecentRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	// Then: all fields survive the round trip
	got := runs[0]
	assert.Equal(t, "employees-alt", got.Collection)
	assert.Equal(t, "exports/q1/employee_data.csv", got.CSVPath)
	assert.Equal(t, "Annual Salary", got.Excluded)
	assert.True(t, got.StartedAt.Equal(started), "want %v, got %v", started, got.StartedAt)
	assert.Equal(t, int64(4231), got.DurationMS)
	assert.Equal(t, 961, got.Loaded)
	assert.Equal(t, 950, got.Indexed)
	assert.Equal(t, 39, got.Deduped)
	assert.Equal(t, 11, got.Skipped)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "null value(s)")
}

func TestJournal_RecentRuns_NewestFirst(t *testing.T) {
	// Given: three runs started a minute apart
	j := openTestJournal(t)
	base := time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := &Run{
			ID:         fmt.Sprintf("run-%d", i),
			Collection: "employees",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			Status:     StatusOK,
		}
		require.NoError(t, j.RecordRun(context.Background(), run))
	}

	// When: listing recent runs
	runs, err := j.RecentRuns(context.Background(), 2)
	require.NoError(t, err)

	// Then: the newest run comes first and the limit holds
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
}

func TestJournal_RecentRuns_Empty(t *testing.T) {
	// Given: a fresh journal
	j := openTestJournal(t)

	// When: listing runs
	runs, err := j.RecentRuns(context.Background(), 10)

	// Then: no error and no runs
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestJournal_SearchTotals_GroupsByField(t *testing.T) {
	// Given: recorded searches across two fields
	j := openTestJournal(t)
	searches := []*Search{
		{Collection: "employees", Field: "department", Value: "IT", Hits: 241},
		{Collection: "employees", Field: "department", Value: "Finance", Hits: 128},
		{Collection: "employees", Field: "country", Value: "Brazil", Hits: 141},
	}
	for _, s := range searches {
		require.NoError(t, j.RecordSearch(context.Background(), s))
	}

	// When: aggregating per field
	totals, err := j.SearchTotals(context.Background())
	require.NoError(t, err)

	// Then: fields are grouped with the most searched first
	require.Len(t, totals, 2)
	assert.Equal(t, "department", totals[0].Field)
	assert.Equal(t, int64(2), totals[0].Count)
	assert.Equal(t, "country", totals[1].Field)
	assert.Equal(t, int64(1), totals[1].Count)
}

func TestJournal_Stats(t *testing.T) {
	// Given: two runs and one search
	j := openTestJournal(t)
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordRun(context.Background(), &Run{
		ID: "older", Collection: "employees", StartedAt: base, Status: StatusFailed,
	}))
	require.NoError(t, j.RecordRun(context.Background(), &Run{
		ID: "newer", Collection: "employees", StartedAt: base.Add(time.Hour), Status: StatusOK,
	}))
	require.NoError(t, j.RecordSearch(context.Background(), &Search{
		Collection: "employees", Field: "department", Value: "IT", Hits: 241,
	}))

	// When: reading stats
	stats, err := j.Stats(context.Background())
	require.NoError(t, err)

	// Then: counts match and the last run is the newest one
	assert.Equal(t, 2, stats.Runs)
	assert.Equal(t, 1, stats.Searches)
	require.NotNil(t, stats.LastRun)
	assert.Equal(t, "newer", stats.LastRun.ID)
	assert.Equal(t, StatusOK, stats.LastRun.Status)
}

func TestJournal_Stats_Empty(t *testing.T) {
	// Given: a fresh journal
	j := openTestJournal(t)

	// When: reading stats
	stats, err := j.Stats(context.Background())
	require.NoError(t, err)

	// Then: everything is zero and there is no last run
	assert.Zero(t, stats.Runs)
	assert.Zero(t, stats.Searches)
	assert.Nil(t, stats.LastRun)
}

func TestJournal_Persistence(t *testing.T) {
	// Given: a journal on disk with one recorded run
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordRun(context.Background(), &Run{
		ID: "persisted", Collection: "employees", Status: StatusOK,
	}))
	require.NoError(t, j.Close())

	// When: reopening the same file
	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	// Then: the run is still there
	runs, err := reopened.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persisted", runs[0].ID)
}
