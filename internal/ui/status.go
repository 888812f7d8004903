package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo contains collection and journal health information.
type StatusInfo struct {
	// Collection stats
	Collection string    `json:"collection"`
	Documents  int64     `json:"documents"`
	LastRun    time.Time `json:"last_run"`
	LastStatus string    `json:"last_status"` // "ok", "failed", "n/a"

	// Journal stats
	RunsRecorded     int   `json:"runs_recorded"`
	SearchesRecorded int   `json:"searches_recorded"`
	JournalSize      int64 `json:"journal_size"`

	// Source file
	CSVPath string `json:"csv_path"`
	CSVSize int64  `json:"csv_size"`

	// Engine status
	EngineStatus  string `json:"engine_status"` // "ready", "offline", "error"
	EngineVersion string `json:"engine_version,omitempty"`
}

// StatusRenderer displays collection status.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	// Header
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Collection Status: "+info.Collection))

	// Collection stats
	if info.Documents >= 0 {
		_, _ = fmt.Fprintf(r.out, "  Documents: %d\n", info.Documents)
	}
	if !info.LastRun.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last run:  %s (%s)\n", formatTime(info.LastRun), info.LastStatus)
	}
	_, _ = fmt.Fprintln(r.out)

	// Source file
	if info.CSVPath != "" {
		_, _ = fmt.Fprintln(r.out, "  Source:")
		_, _ = fmt.Fprintf(r.out, "    File: %s\n", info.CSVPath)
		_, _ = fmt.Fprintf(r.out, "    Size: %s\n", FormatBytes(info.CSVSize))
		_, _ = fmt.Fprintln(r.out)
	}

	// Journal stats
	_, _ = fmt.Fprintln(r.out, "  Journal:")
	_, _ = fmt.Fprintf(r.out, "    Runs:     %d\n", info.RunsRecorded)
	_, _ = fmt.Fprintf(r.out, "    Searches: %d\n", info.SearchesRecorded)
	_, _ = fmt.Fprintf(r.out, "    Size:     %s\n", FormatBytes(info.JournalSize))
	_, _ = fmt.Fprintln(r.out)

	// Engine status
	_, _ = fmt.Fprintln(r.out, "  Engine:")
	_, _ = fmt.Fprintf(r.out, "    Status: %s\n", r.renderStatus(info.EngineStatus))
	if info.EngineVersion != "" {
		_, _ = fmt.Fprintf(r.out, "    Version: %s\n", info.EngineVersion)
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// renderStatus formats a status string with color.
func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready", "running", "ok":
		return r.styles.Success.Render(status)
	case "offline", "stopped":
		return r.styles.Warning.Render(status)
	case "error", "failed":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
