// Package ingest provides the Runner that drives a full CSV-to-collection
// run: load, clean, validate, then index one document per record.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/empdex/empdex/internal/employee"
	"github.com/empdex/empdex/internal/errors"
	"github.com/empdex/empdex/internal/journal"
	"github.com/empdex/empdex/internal/ui"
)

// Indexer is the slice of the engine gateway the runner needs.
// *esindex.Gateway satisfies it.
type Indexer interface {
	EnsureCollection(ctx context.Context, name string) (bool, error)
	Upsert(ctx context.Context, collection, id string, doc map[string]any) error
}

// RunSink receives the record of a finished run. *journal.Journal
// satisfies it.
type RunSink interface {
	RecordRun(ctx context.Context, run *journal.Run) error
}

// RunnerConfig configures one ingest run.
type RunnerConfig struct {
	// Collection is the target collection name.
	Collection string

	// CSVPath is the employee CSV file to ingest.
	CSVPath string

	// Encoding is the CSV character set (iso-8859-1 or utf-8).
	Encoding string

	// Exclude is a schema column to drop before indexing. Empty keeps
	// the full schema.
	Exclude string

	// LockPath is the cross-process ingest lock file. Empty disables
	// locking.
	LockPath string
}

// RunnerResult contains the outcome of an ingest run.
type RunnerResult struct {
	// Loaded is the number of records read from the CSV after
	// deduplication.
	Loaded int

	// Indexed is the number of documents written to the collection.
	Indexed int

	// Deduped is the number of duplicate rows dropped.
	Deduped int

	// Skipped is the number of records skipped for a null identifier.
	Skipped int

	// Duration is the total run time.
	Duration time.Duration

	// Warnings is the count of non-fatal warnings.
	Warnings int

	// Created reports whether this run created the collection.
	Created bool
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Renderer for progress display (required).
	Renderer ui.Renderer

	// Indexer for collection writes (required).
	Indexer Indexer

	// Journal records finished runs. Optional; nil disables journaling.
	Journal RunSink
}

// Runner executes ingest runs with progress reporting.
// It accepts injected dependencies for testability and reusability.
type Runner struct {
	renderer ui.Renderer
	indexer  Indexer
	journal  RunSink
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Indexer == nil {
		return nil, fmt.Errorf("indexer is required")
	}

	return &Runner{
		renderer: deps.Renderer,
		indexer:  deps.Indexer,
		journal:  deps.Journal,
	}, nil
}

// stageTiming tracks duration for each ingest stage.
type stageTiming struct {
	load  time.Duration
	clean time.Duration
	index time.Duration
}

// Run executes the full ingest pipeline. The outcome, including a
// failure, is journaled when a journal is configured.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*RunnerResult, error) {
	startedAt := time.Now()

	if cfg.LockPath != "" {
		lock := NewFileLock(cfg.LockPath)
		acquired, err := lock.TryLock()
		if err != nil {
			return nil, errors.New(errors.ErrCodeFilePermission,
				fmt.Sprintf("cannot acquire ingest lock: %v", err), err)
		}
		if !acquired {
			return nil, errors.New(errors.ErrCodeLockHeld,
				"another ingest run holds the lock", nil).
				WithDetail("lock", cfg.LockPath).
				WithSuggestion("wait for the other run to finish, or delete a stale lock file")
		}
		defer func() { _ = lock.Unlock() }()
	}

	result, err := r.run(ctx, cfg, startedAt)
	r.recordRun(ctx, cfg, result, startedAt, err)
	return result, err
}

// run is the pipeline body. Any error aborts the run; only duplicate
// rows and rows without an identifier are dropped individually.
func (r *Runner) run(ctx context.Context, cfg RunnerConfig, startedAt time.Time) (*RunnerResult, error) {
	var timing stageTiming
	var warnCount int

	// Stage 1: Load the CSV
	loadStart := time.Now()
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageLoading,
		Message: fmt.Sprintf("Reading %s...", cfg.CSVPath),
	})
	slog.Info("ingest_load_started",
		slog.String("path", cfg.CSVPath),
		slog.String("collection", cfg.Collection))

	loader := employee.NewLoader(cfg.CSVPath, cfg.Encoding)
	batch, err := loader.Read(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	timing.load = time.Since(loadStart)

	for _, w := range batch.Warnings {
		r.renderer.AddError(ui.ErrorEvent{
			Subject: cfg.CSVPath,
			Err:     fmt.Errorf("%s", w),
			IsWarn:  true,
		})
	}
	warnCount += len(batch.Warnings)

	slog.Info("ingest_load_complete",
		slog.Int("rows", len(batch.Rows)),
		slog.Int("deduped", batch.Deduped))

	// Stage 2: Clean and validate
	cleanStart := time.Now()
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage: ui.StageCleaning,
		Total: len(batch.Rows),
	})

	records, err := employee.CleanBatch(batch)
	if err != nil {
		return nil, err
	}
	if err := employee.ValidateBatch(records); err != nil {
		return nil, err
	}
	timing.clean = time.Since(cleanStart)

	slog.Info("ingest_clean_complete", slog.Int("records", len(records)))

	// Make sure the collection exists before the first write
	created, err := r.indexer.EnsureCollection(ctx, cfg.Collection)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("collection_created", slog.String("collection", cfg.Collection))
	}

	// Stage 3: Index one document per record
	indexStart := time.Now()
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage: ui.StageIndexing,
		Total: len(records),
	})

	var indexed, skipped int
	for i, rec := range records {
		select {
		case <-ctx.Done():
			slog.Info("ingest_interrupted",
				slog.Int("indexed", indexed),
				slog.Int("total", len(records)))
			return nil, fmt.Errorf("ingest interrupted at %d/%d records: %w", indexed, len(records), ctx.Err())
		default:
		}

		id := rec.ID()
		if id == "" {
			skipped++
			warnCount++
			r.renderer.AddError(ui.ErrorEvent{
				Subject: fmt.Sprintf("row %d", rec.Line),
				Err: errors.New(errors.ErrCodeNullIdentifier,
					"record has no identifier, skipping", nil),
				IsWarn: true,
			})
			continue
		}

		if err := r.indexer.Upsert(ctx, cfg.Collection, id, rec.Document()); err != nil {
			return nil, err
		}
		indexed++

		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:      ui.StageIndexing,
			Current:    i + 1,
			Total:      len(records),
			EmployeeID: id,
		})
	}
	timing.index = time.Since(indexStart)

	duration := time.Since(startedAt)

	r.renderer.Complete(ui.CompletionStats{
		Collection: cfg.Collection,
		Records:    len(records),
		Indexed:    indexed,
		Deduped:    batch.Deduped,
		Skipped:    skipped,
		Duration:   duration,
		Warnings:   warnCount,
		Stages: ui.StageTimings{
			Load:  timing.load,
			Clean: timing.clean,
			Index: timing.index,
		},
	})

	docsPerSec := 0.0
	if timing.index.Seconds() > 0 {
		docsPerSec = float64(indexed) / timing.index.Seconds()
	}

	slog.Info("ingest_complete",
		slog.String("collection", cfg.Collection),
		slog.Int("records", len(records)),
		slog.Int("indexed", indexed),
		slog.Int("deduped", batch.Deduped),
		slog.Int("skipped", skipped),
		slog.String("duration_total", duration.String()),
		slog.Int64("duration_total_ms", duration.Milliseconds()),
		slog.Int64("duration_load_ms", timing.load.Milliseconds()),
		slog.Int64("duration_clean_ms", timing.clean.Milliseconds()),
		slog.Int64("duration_index_ms", timing.index.Milliseconds()),
		slog.Float64("docs_per_sec", docsPerSec),
		slog.String("path", cfg.CSVPath))

	return &RunnerResult{
		Loaded:   len(records),
		Indexed:  indexed,
		Deduped:  batch.Deduped,
		Skipped:  skipped,
		Duration: duration,
		Warnings: warnCount,
		Created:  created,
	}, nil
}

// recordRun journals the run outcome, best effort. The journal write
// must survive a cancelled run, so it detaches from ctx cancellation.
func (r *Runner) recordRun(ctx context.Context, cfg RunnerConfig, result *RunnerResult, startedAt time.Time, runErr error) {
	if r.journal == nil {
		return
	}

	run := &journal.Run{
		Collection: cfg.Collection,
		CSVPath:    cfg.CSVPath,
		Excluded:   cfg.Exclude,
		StartedAt:  startedAt,
		DurationMS: time.Since(startedAt).Milliseconds(),
		Status:     journal.StatusOK,
	}
	if result != nil {
		run.Loaded = result.Loaded
		run.Indexed = result.Indexed
		run.Deduped = result.Deduped
		run.Skipped = result.Skipped
		run.DurationMS = result.Duration.Milliseconds()
	}
	if runErr != nil {
		run.Status = journal.StatusFailed
		run.Error = runErr.Error()
	}

	if err := r.journal.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		slog.Warn("failed to journal run", slog.String("error", err.Error()))
	}
}
