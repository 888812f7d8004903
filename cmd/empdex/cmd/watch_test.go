package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchCmd_HasFlags(t *testing.T) {
	// Given: root command
	cmd := NewRootCmd()

	// When: finding watch command
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	// Then: all watch flags are registered
	for _, name := range []string{"csv", "exclude", "force-poll", "no-journal", "no-initial-run"} {
		assert.NotNil(t, watchCmd.Flags().Lookup(name), "should have --%s flag", name)
	}
}

func TestWatchCmd_InitialRunIngests(t *testing.T) {
	// Given: a CSV and a fake engine
	tmp := withTempHome(t)
	writeEmployeeCSV(t, tmp, rowKai, rowRobert, rowCameron)
	fake := newFakeOps()
	withFakeOps(t, fake)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"watch", "--no-journal"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// When: watching with the default initial run
	errCh := make(chan error, 1)
	go func() {
		errCh <- cmd.ExecuteContext(ctx)
	}()

	// Then: the startup ingest indexes every row
	require.Eventually(t, func() bool {
		return fake.docCount("employees") == 3
	}, 5*time.Second, 10*time.Millisecond, "initial run should index the CSV")

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err, "cancellation is a clean stop")
	case <-time.After(5 * time.Second):
		t.Fatal("watch didn't stop within timeout")
	}

	output := buf.String()
	assert.Contains(t, output, "Watching")
	assert.Contains(t, output, "Press Ctrl-C to stop")
	assert.Contains(t, output, "Complete: 3 of 3 records indexed to employees")
}

func TestWatchCmd_NoInitialRunWaitsForChanges(t *testing.T) {
	// Given: a CSV and a fake engine
	tmp := withTempHome(t)
	writeEmployeeCSV(t, tmp, rowKai, rowRobert)
	fake := newFakeOps()
	withFakeOps(t, fake)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"watch", "--no-initial-run", "--no-journal"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// When: watching without the startup ingest, then stopping
	errCh := make(chan error, 1)
	go func() {
		errCh <- cmd.ExecuteContext(ctx)
	}()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch didn't stop within timeout")
	}

	// Then: nothing was ingested
	assert.Equal(t, 0, fake.docCount("employees"))
	assert.Contains(t, buf.String(), "Watching")
}
