package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	stage  Stage
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out: cfg.Output,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = event.Stage

	// Format: [STAGE] current/total - message or employee ID
	var msg string
	if event.Message != "" {
		msg = event.Message
	} else if event.EmployeeID != "" {
		msg = event.EmployeeID
	}

	if event.Total > 0 {
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	} else if msg != "" {
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}

	if event.Subject != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Subject, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := stats.Collection
	if target == "" {
		target = "collection"
	}

	_, _ = fmt.Fprintf(r.out, "Complete: %d of %d records indexed to %s in %s",
		stats.Indexed, stats.Records, target, stats.Duration.Round(100*millisecond))

	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}

	_, _ = fmt.Fprintln(r.out)

	if stats.Deduped > 0 || stats.Skipped > 0 {
		_, _ = fmt.Fprintf(r.out, "Dropped %d duplicate row(s), skipped %d record(s) without an identifier\n",
			stats.Deduped, stats.Skipped)
	}

	// Show detailed stage breakdown if available
	if stats.Stages.Load > 0 || stats.Stages.Index > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, "Stage Breakdown:")
		_, _ = fmt.Fprintf(r.out, "  Load:  %s (rows parsed)\n", stats.Stages.Load.Round(100*millisecond))
		_, _ = fmt.Fprintf(r.out, "  Clean: %s (values typed)\n", stats.Stages.Clean.Round(100*millisecond))
		if stats.Stages.Index > 0 && stats.Indexed > 0 {
			docsPerSec := float64(stats.Indexed) / stats.Stages.Index.Seconds()
			_, _ = fmt.Fprintf(r.out, "  Index: %s (%d docs @ %.1f/sec)\n",
				stats.Stages.Index.Round(100*millisecond), stats.Indexed, docsPerSec)
		} else {
			_, _ = fmt.Fprintf(r.out, "  Index: %s\n", stats.Stages.Index.Round(100*millisecond))
		}
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

const millisecond = 1000000 // nanoseconds
