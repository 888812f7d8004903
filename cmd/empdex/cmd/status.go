package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/config"
	"github.com/empdex/empdex/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [collection]",
		Short: "Show collection and journal health",
		Long: `Display a health overview of one collection:
  - Engine connectivity and version
  - Document count
  - Last ingest run and its outcome
  - Journal totals and size
  - The configured CSV source file

The collection defaults to the configured primary collection.`,
		Example: `  empdex status
  empdex status employees-alt
  empdex status --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := ""
			if len(args) > 0 {
				collection = args[0]
			}
			return runStatus(cmd.Context(), cmd, collection, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, collection string, jsonOutput bool) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	if collection == "" {
		collection = cfg.Collections.Primary
	}

	info := collectStatus(ctx, cfg, collection)

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

// collectStatus gathers engine, journal, and source file health. An
// unreachable engine or missing journal degrades the report instead of
// failing it.
func collectStatus(ctx context.Context, cfg *config.Config, collection string) ui.StatusInfo {
	info := ui.StatusInfo{
		Collection:   collection,
		Documents:    -1,
		LastStatus:   "n/a",
		EngineStatus: "offline",
		CSVPath:      cfg.CSV.Path,
	}

	if gateway, err := newOperations(cfg); err == nil {
		if engineVersion, err := gateway.Ping(ctx); err == nil {
			info.EngineStatus = "ready"
			info.EngineVersion = engineVersion
			if n, err := gateway.Count(ctx, collection); err == nil {
				info.Documents = n
			}
		}
	}

	if fi, err := os.Stat(cfg.CSV.Path); err == nil {
		info.CSVSize = fi.Size()
	}

	if j := openJournal(cfg, false); j != nil {
		defer func() { _ = j.Close() }()

		if stats, err := j.Stats(ctx); err == nil {
			info.RunsRecorded = stats.Runs
			info.SearchesRecorded = stats.Searches
		}
		if runs, err := j.RecentRuns(ctx, 1); err == nil && len(runs) > 0 {
			info.LastRun = runs[0].StartedAt
			info.LastStatus = runs[0].Status
		}
		if fi, err := os.Stat(j.Path()); err == nil {
			info.JournalSize = fi.Size()
		}
	}

	return info
}
