package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/config"
	"github.com/empdex/empdex/internal/ingest"
	"github.com/empdex/empdex/internal/ui"
)

// ingestOptions holds CLI flags for ingest.
type ingestOptions struct {
	csvPath   string
	encoding  string
	exclude   string
	noTUI     bool
	noJournal bool
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest [collection]",
		Short: "Load the employee CSV and index it into a collection",
		Long: `Load the employee CSV, clean the values, and index every record
into the target collection.

The pipeline reads the file (ISO-8859-1 by default), drops an excluded
column when requested, deduplicates rows by Employee ID, converts
salary, bonus, age, and dates into typed values, and rejects the whole
batch if any field is still empty after cleaning.

The collection defaults to the configured primary collection.`,
		Example: `  # Ingest into the configured primary collection
  empdex ingest

  # Ingest a specific export into a named collection
  empdex ingest staff --csv exports/latest.csv

  # Leave the Department column out of the index
  empdex ingest --exclude Department`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collection := ""
			if len(args) > 0 {
				collection = args[0]
			}
			return runIngest(ctx, cmd, collection, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV file to ingest (default from config)")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "CSV encoding: iso-8859-1 or utf-8 (default from config)")
	cmd.Flags().StringVarP(&opts.exclude, "exclude", "x", "", "Schema column to drop before indexing")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Disable interactive progress display")
	cmd.Flags().BoolVar(&opts.noJournal, "no-journal", false, "Skip recording this run in the journal")

	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, collection string, opts ingestOptions) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	runCfg := resolveRunnerConfig(cfg, collection, opts.csvPath, opts.encoding, opts.exclude)

	slog.Info("ingest_started",
		slog.String("collection", runCfg.Collection),
		slog.String("csv", runCfg.CSVPath))

	// Create renderer (auto-detects TTY/CI, respects --no-tui flag)
	uiCfg := ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.noTUI),
		ui.WithSource(runCfg.CSVPath))
	renderer := ui.NewRenderer(uiCfg)
	if err := renderer.Start(ctx); err != nil {
		// Fall back to basic output if renderer fails to start
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	gateway, err := newOperations(cfg)
	if err != nil {
		return err
	}

	deps := ingest.RunnerDependencies{
		Renderer: renderer,
		Indexer:  gateway,
	}
	if j := openJournal(cfg, opts.noJournal); j != nil {
		defer func() { _ = j.Close() }()
		deps.Journal = j
	}

	runner, err := ingest.NewRunner(deps)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	_, err = runner.Run(ctx, runCfg)
	return err
}

// resolveRunnerConfig merges flag overrides onto the configured
// defaults for one ingest run.
func resolveRunnerConfig(cfg *config.Config, collection, csvPath, encoding, exclude string) ingest.RunnerConfig {
	run := ingest.RunnerConfig{
		Collection: cfg.Collections.Primary,
		CSVPath:    cfg.CSV.Path,
		Encoding:   cfg.CSV.Encoding,
		Exclude:    exclude,
		LockPath:   cfg.LockPath(),
	}
	if collection != "" {
		run.Collection = collection
	}
	if csvPath != "" {
		run.CSVPath = csvPath
	}
	if encoding != "" {
		run.Encoding = encoding
	}
	return run
}
