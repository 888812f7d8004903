package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHybridWatcher_NewHybridWatcher(t *testing.T) {
	// Given: default options
	opts := DefaultOptions()

	// When: creating a hybrid watcher
	w, err := NewHybridWatcher(opts)

	// Then: no error and fsnotify is preferred
	require.NoError(t, err)
	require.NotNil(t, w)
	defer func() { _ = w.Stop() }()
	assert.Equal(t, "fsnotify", w.WatcherType())
}

func TestHybridWatcher_ForcePoll(t *testing.T) {
	// Given: options that force polling
	opts := Options{ForcePoll: true}

	// When: creating a hybrid watcher
	w, err := NewHybridWatcher(opts)

	// Then: the polling fallback is used
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()
	assert.Equal(t, "polling", w.WatcherType())
}

func startHybridWatcher(t *testing.T, opts Options, path string) *HybridWatcher {
	t.Helper()

	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(func() { _ = w.Stop() })

	go func() {
		_ = w.Start(ctx, path)
	}()

	// Wait for the watcher to subscribe before touching the file
	time.Sleep(200 * time.Millisecond)
	return w
}

func waitForBatch(t *testing.T, w *HybridWatcher) []FileEvent {
	t.Helper()

	select {
	case events := <-w.Events():
		require.NotEmpty(t, events)
		return events
	case err := <-w.Errors():
		t.Fatalf("unexpected watcher error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for events")
	}
	return nil
}

func TestHybridWatcher_DetectsModification(t *testing.T) {
	// Given: a watcher on an existing CSV
	dir := t.TempDir()
	path := filepath.Join(dir, "employee_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Employee ID\nE02002\n"), 0o644))

	w := startHybridWatcher(t, Options{
		DebounceWindow:  50 * time.Millisecond,
		EventBufferSize: 100,
	}, path)

	// When: the CSV is rewritten
	require.NoError(t, os.WriteFile(path, []byte("Employee ID\nE02002\nE02003\n"), 0o644))

	// Then: a batch arrives for the target path
	events := waitForBatch(t, w)
	assert.Equal(t, path, events[0].Path)
}

func TestHybridWatcher_IgnoresOtherFiles(t *testing.T) {
	// Given: a watcher on one CSV in a busy directory
	dir := t.TempDir()
	path := filepath.Join(dir, "employee_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Employee ID\n"), 0o644))

	w := startHybridWatcher(t, Options{
		DebounceWindow:  50 * time.Millisecond,
		EventBufferSize: 100,
	}, path)

	// When: an unrelated file in the same directory changes
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("scratch"), 0o644))

	// Then: no event is emitted
	select {
	case events := <-w.Events():
		t.Fatalf("unexpected events for unrelated file: %v", events)
	case <-time.After(300 * time.Millisecond):
		// Expected
	}
}

func TestHybridWatcher_ReplaceByRename(t *testing.T) {
	// Given: a watcher on an existing CSV
	dir := t.TempDir()
	path := filepath.Join(dir, "employee_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Employee ID\nE02002\n"), 0o644))

	w := startHybridWatcher(t, Options{
		DebounceWindow:  50 * time.Millisecond,
		EventBufferSize: 100,
	}, path)

	// When: a new export is renamed over the CSV (editor-style save)
	tmp := filepath.Join(dir, "employee_data.csv.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("Employee ID\nE02002\nE02003\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	// Then: the change surfaces as a single debounced batch
	events := waitForBatch(t, w)
	assert.Equal(t, path, events[0].Path)
}

func TestHybridWatcher_PollingMode_DetectsModification(t *testing.T) {
	// Given: a forced-polling watcher on an existing CSV
	dir := t.TempDir()
	path := filepath.Join(dir, "employee_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Employee ID\nE02002\n"), 0o644))

	w := startHybridWatcher(t, Options{
		DebounceWindow:  50 * time.Millisecond,
		PollInterval:    20 * time.Millisecond,
		EventBufferSize: 100,
		ForcePoll:       true,
	}, path)

	// When: the CSV grows
	require.NoError(t, os.WriteFile(path, []byte("Employee ID\nE02002\nE02003\n"), 0o644))

	// Then: the poller reports the change
	events := waitForBatch(t, w)
	assert.Equal(t, OpModify, events[0].Operation)
}

func TestHybridWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestHybridWatcher_IsHealthy(t *testing.T) {
	// Given: a fresh watcher
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)

	// Then: healthy until stopped
	assert.True(t, w.IsHealthy())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsHealthy())
}

func TestHybridWatcher_DroppedBatches_StartsAtZero(t *testing.T) {
	w, err := NewHybridWatcher(DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	assert.Zero(t, w.DroppedBatches())
}

func TestHybridWatcher_TargetPath(t *testing.T) {
	// Given: a watcher started on a CSV
	dir := t.TempDir()
	path := filepath.Join(dir, "employee_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Employee ID\n"), 0o644))

	w := startHybridWatcher(t, DefaultOptions(), path)

	// Then: the target path is recorded
	assert.Equal(t, path, w.TargetPath())
}
