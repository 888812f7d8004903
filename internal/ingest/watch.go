package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/empdex/empdex/internal/watcher"
)

// DefaultHashCacheSize is the default number of content hashes to
// remember. A handful covers the save-undo-save flapping that editors
// and spreadsheet exports produce.
const DefaultHashCacheSize = 16

// WatchConfig configures the watch loop.
type WatchConfig struct {
	// Run is the ingest configuration applied on every triggered run.
	Run RunnerConfig

	// Watch configures the file watcher.
	Watch watcher.Options

	// IngestOnStart runs one ingest immediately, before the first
	// change event.
	IngestOnStart bool

	// HashCacheSize overrides DefaultHashCacheSize when positive.
	HashCacheSize int
}

// Coordinator re-runs ingest whenever the watched CSV changes. An LRU
// cache of content hashes skips runs whose bytes were already ingested,
// so touching the file without changing it stays cheap.
type Coordinator struct {
	runner *Runner
	cfg    WatchConfig
	seen   *lru.Cache[string, time.Time]
	mu     sync.Mutex
}

// NewCoordinator creates a watch coordinator around an ingest runner.
func NewCoordinator(runner *Runner, cfg WatchConfig) (*Coordinator, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}

	size := cfg.HashCacheSize
	if size <= 0 {
		size = DefaultHashCacheSize
	}
	seen, err := lru.New[string, time.Time](size)
	if err != nil {
		return nil, fmt.Errorf("create hash cache: %w", err)
	}

	return &Coordinator{
		runner: runner,
		cfg:    cfg,
		seen:   seen,
	}, nil
}

// Watch runs the watcher and the event consumer until the context is
// cancelled. Cancellation is the normal way to stop watching and is not
// reported as an error.
func (c *Coordinator) Watch(ctx context.Context) error {
	w, err := watcher.NewHybridWatcher(c.cfg.Watch)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	slog.Info("watch_started",
		slog.String("path", c.cfg.Run.CSVPath),
		slog.String("collection", c.cfg.Run.Collection),
		slog.String("mode", w.WatcherType()))

	if c.cfg.IngestOnStart {
		c.ingestIfChanged(ctx, "startup")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Start(gctx, c.cfg.Run.CSVPath)
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case batch, ok := <-w.Events():
				if !ok {
					return nil
				}
				c.handleBatch(gctx, batch)
			case werr, ok := <-w.Errors():
				if !ok {
					return nil
				}
				slog.Warn("watch_error", slog.String("error", werr.Error()))
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// handleBatch reacts to one debounced batch of change events.
func (c *Coordinator) handleBatch(ctx context.Context, events []watcher.FileEvent) {
	for _, event := range events {
		switch event.Operation {
		case watcher.OpDelete, watcher.OpRename:
			// Keep watching; exports often delete before rewriting
			slog.Warn("watched csv disappeared",
				slog.String("path", event.Path),
				slog.String("op", event.Operation.String()))
		default:
			c.ingestIfChanged(ctx, event.Operation.String())
		}
	}
}

// ingestIfChanged hashes the CSV and runs ingest unless those exact
// bytes were already ingested. Runs are serialized; the flock inside the
// runner additionally guards against other processes.
func (c *Coordinator) ingestIfChanged(ctx context.Context, trigger string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, err := os.ReadFile(c.cfg.Run.CSVPath)
	if err != nil {
		slog.Warn("cannot read watched csv",
			slog.String("path", c.cfg.Run.CSVPath),
			slog.String("error", err.Error()))
		return
	}

	hash := hashContent(content)
	if _, ok := c.seen.Get(hash); ok {
		slog.Info("csv_unchanged",
			slog.String("trigger", trigger),
			slog.String("hash", hash[:12]))
		return
	}

	slog.Info("csv_changed",
		slog.String("trigger", trigger),
		slog.Int("bytes", len(content)))

	result, err := c.runner.Run(ctx, c.cfg.Run)
	if err != nil {
		// Not cached: the next event retries the same content
		slog.Error("watch ingest failed", slog.String("error", err.Error()))
		return
	}

	c.seen.Add(hash, time.Now())
	slog.Info("watch_ingest_complete",
		slog.Int("indexed", result.Indexed),
		slog.String("hash", hash[:12]))
}

// hashContent returns the hex SHA-256 of the CSV bytes.
func hashContent(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
