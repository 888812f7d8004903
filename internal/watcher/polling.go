package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// PollingWatcher watches a single file by periodically calling os.Stat.
// Used as a fallback when fsnotify is not available or fails.
type PollingWatcher struct {
	interval time.Duration
	last     fileSnapshot
	events   chan FileEvent
	errors   chan error
	stopCh   chan struct{}
	mu       sync.RWMutex
	stopped  bool
	path     string
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a new polling watcher with the given interval.
func NewPollingWatcher(interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		events:   make(chan FileEvent, 100),
		errors:   make(chan error, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching the given file by polling. The file does not
// have to exist yet; its appearance is reported as a create.
func (p *PollingWatcher) Start(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	p.path = absPath

	// Baseline, so an already present file does not fire a create
	p.mu.Lock()
	p.last = p.snapshot()
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChange()
		}
	}
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}

// snapshot records the current state of the watched file.
func (p *PollingWatcher) snapshot() fileSnapshot {
	info, err := os.Stat(p.path)
	if err != nil {
		return fileSnapshot{exists: false}
	}
	return fileSnapshot{
		exists:  true,
		modTime: info.ModTime(),
		size:    info.Size(),
	}
}

// detectChange compares the current file state with the previous one
// and emits at most one event.
func (p *PollingWatcher) detectChange() {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.snapshot()
	prev := p.last
	p.last = current

	switch {
	case current.exists && !prev.exists:
		p.emitEvent(FileEvent{Path: p.path, Operation: OpCreate, Timestamp: time.Now()})
	case !current.exists && prev.exists:
		p.emitEvent(FileEvent{Path: p.path, Operation: OpDelete, Timestamp: time.Now()})
	case current.exists && (current.modTime != prev.modTime || current.size != prev.size):
		p.emitEvent(FileEvent{Path: p.path, Operation: OpModify, Timestamp: time.Now()})
	}
}

// emitEvent sends an event to the events channel.
// Must be called with lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}
