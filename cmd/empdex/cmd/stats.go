package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/journal"
	"github.com/empdex/empdex/internal/output"
)

// statsOutput is the JSON shape for the stats command.
type statsOutput struct {
	JournalPath  string       `json:"journal_path"`
	Runs         int          `json:"runs"`
	Searches     int          `json:"searches"`
	RecentRuns   []statsRun   `json:"recent_runs"`
	SearchTotals []statsTotal `json:"search_totals"`
}

// statsRun is the JSON shape of one journaled run.
type statsRun struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
	CSVPath    string `json:"csv_path"`
	Excluded   string `json:"excluded,omitempty"`
	StartedAt  string `json:"started_at"`
	Duration   string `json:"duration"`
	Loaded     int    `json:"loaded"`
	Indexed    int    `json:"indexed"`
	Deduped    int    `json:"deduped"`
	Skipped    int    `json:"skipped"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// statsTotal is the JSON shape of one per-field search total.
type statsTotal struct {
	Field string `json:"field"`
	Count int64  `json:"count"`
}

func newStatsCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ingest and search history",
		Long: `Display the local journal: recent ingest runs with their counts and
outcome, and how often each field has been searched.`,
		Example: `  empdex stats
  empdex stats --runs 25
  empdex stats --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd.Context(), cmd, jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&limit, "runs", 10, "Number of recent runs to show")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, jsonOutput bool, limit int) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	if cfg.Journal.Disabled {
		return fmt.Errorf("journal is disabled in the configuration")
	}

	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = j.Close() }()

	stats, err := j.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	runs, err := j.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read runs: %w", err)
	}

	totals, err := j.SearchTotals(ctx)
	if err != nil {
		return fmt.Errorf("failed to read search totals: %w", err)
	}

	if jsonOutput {
		return printStatsJSON(cmd, j.Path(), stats, runs, totals)
	}
	return printStatsText(cmd, j.Path(), stats, runs, totals)
}

func printStatsJSON(cmd *cobra.Command, path string, stats *journal.Stats, runs []*journal.Run, totals []journal.SearchTotal) error {
	result := statsOutput{
		JournalPath:  path,
		Runs:         stats.Runs,
		Searches:     stats.Searches,
		RecentRuns:   make([]statsRun, 0, len(runs)),
		SearchTotals: make([]statsTotal, 0, len(totals)),
	}
	for _, r := range runs {
		result.RecentRuns = append(result.RecentRuns, statsRun{
			ID:         r.ID,
			Collection: r.Collection,
			CSVPath:    r.CSVPath,
			Excluded:   r.Excluded,
			StartedAt:  r.StartedAt.Format(time.RFC3339),
			Duration:   runDuration(r).String(),
			Loaded:     r.Loaded,
			Indexed:    r.Indexed,
			Deduped:    r.Deduped,
			Skipped:    r.Skipped,
			Status:     r.Status,
			Error:      r.Error,
		})
	}
	for _, t := range totals {
		result.SearchTotals = append(result.SearchTotals, statsTotal{Field: t.Field, Count: t.Count})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printStatsText(cmd *cobra.Command, path string, stats *journal.Stats, runs []*journal.Run, totals []journal.SearchTotal) error {
	w := cmd.OutOrStdout()
	out := output.New(w)

	out.Statusf("📒", "Journal: %s", path)
	out.Statusf("", "%d run(s), %d search(es) recorded", stats.Runs, stats.Searches)

	if len(runs) > 0 {
		out.Newline()
		out.Status("📥", "Recent runs:")
		for _, r := range runs {
			icon := "✅"
			if r.Status != journal.StatusOK {
				icon = "❌"
			}
			line := fmt.Sprintf("%s %s  %-14s %4d indexed  %s",
				icon, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Collection, r.Indexed, runDuration(r).Round(time.Millisecond))
			if r.Excluded != "" {
				line += fmt.Sprintf("  (excluding %s)", r.Excluded)
			}
			if r.Error != "" {
				line += "  " + r.Error
			}
			_, _ = fmt.Fprintf(w, "   %s\n", line)
		}
	}

	if len(totals) > 0 {
		out.Newline()
		out.Status("🔍", "Searches by field:")
		for _, t := range totals {
			_, _ = fmt.Fprintf(w, "   %-24s %d\n", t.Field, t.Count)
		}
	}

	if stats.Runs == 0 && stats.Searches == 0 {
		out.Newline()
		out.Status("💡", "Nothing recorded yet. Run 'empdex ingest' or 'empdex search' first")
	}

	return nil
}

// runDuration converts a journaled duration back to time.Duration.
func runDuration(r *journal.Run) time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}
