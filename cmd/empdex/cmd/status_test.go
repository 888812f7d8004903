package cmd

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empdex/empdex/internal/journal"
	"github.com/empdex/empdex/internal/ui"
)

func TestStatusCmd_EngineReady(t *testing.T) {
	// Given: a reachable engine with two documents and a CSV on disk
	home := withTempHome(t)
	fake := newFakeOps()
	fake.seed("employees", "E02002", map[string]any{"Department": "Engineering"})
	fake.seed("employees", "E02003", map[string]any{"Department": "IT"})
	withFakeOps(t, fake)
	writeEmployeeCSV(t, home, rowKai, rowRobert)

	// When: running status
	out, err := execute(t, "status")

	// Then: the overview reports the engine, count, and source file
	require.NoError(t, err)
	assert.Contains(t, out, "Collection Status: employees")
	assert.Contains(t, out, "Documents: 2")
	assert.Contains(t, out, "ready")
	assert.Contains(t, out, "8.14.3")
	assert.Contains(t, out, "File: employee_data.csv")
	assert.Contains(t, out, "Runs:     0")
	assert.Contains(t, out, "Searches: 0")
}

func TestStatusCmd_EngineOffline(t *testing.T) {
	// Given: an unreachable engine
	withTempHome(t)
	fake := newFakeOps()
	fake.pingErr = assert.AnError
	withFakeOps(t, fake)

	// When: running status
	out, err := execute(t, "status")

	// Then: the engine is reported offline and no count is shown
	require.NoError(t, err)
	assert.Contains(t, out, "offline")
	assert.NotContains(t, out, "Documents:")
}

func TestStatusCmd_ShowsLastRun(t *testing.T) {
	// Given: a journal with one recorded run
	home := withTempHome(t)
	withFakeOps(t, newFakeOps())
	seedJournal(t, home, func(j *journal.Journal) {
		require.NoError(t, j.RecordRun(context.Background(), &journal.Run{
			Collection: "employees",
			CSVPath:    "employee_data.csv",
			StartedAt:  time.Now().Add(-30 * time.Second),
			Loaded:     3,
			Indexed:    3,
			Status:     journal.StatusOK,
		}))
	})

	// When: running status
	out, err := execute(t, "status")

	// Then: the last run and journal totals appear
	require.NoError(t, err)
	assert.Contains(t, out, "Last run:")
	assert.Contains(t, out, "(ok)")
	assert.Contains(t, out, "Runs:     1")
}

func TestStatusCmd_NamedCollection(t *testing.T) {
	// Given: documents in a non-primary collection
	withTempHome(t)
	fake := newFakeOps()
	fake.seed("employees-alt", "E02004", map[string]any{"Department": "IT"})
	withFakeOps(t, fake)

	// When: running status against it
	out, err := execute(t, "status", "employees-alt")

	// Then: the named collection is reported
	require.NoError(t, err)
	assert.Contains(t, out, "Collection Status: employees-alt")
	assert.Contains(t, out, "Documents: 1")
}

func TestStatusCmd_JSONOutput(t *testing.T) {
	// Given: a reachable engine and a journaled run
	home := withTempHome(t)
	fake := newFakeOps()
	fake.seed("employees", "E02002", map[string]any{"Department": "Engineering"})
	withFakeOps(t, fake)
	seedJournal(t, home, func(j *journal.Journal) {
		require.NoError(t, j.RecordRun(context.Background(), &journal.Run{
			Collection: "employees",
			Status:     journal.StatusOK,
		}))
	})

	// When: running status --json
	out, err := execute(t, "status", "--json")
	require.NoError(t, err)

	// Then: the output decodes into the status shape
	var info ui.StatusInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "employees", info.Collection)
	assert.Equal(t, "ready", info.EngineStatus)
	assert.Equal(t, "8.14.3", info.EngineVersion)
	assert.Equal(t, int64(1), info.Documents)
	assert.Equal(t, 1, info.RunsRecorded)
	assert.Equal(t, "ok", info.LastStatus)
}
