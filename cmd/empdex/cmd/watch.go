package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/ingest"
	"github.com/empdex/empdex/internal/output"
	"github.com/empdex/empdex/internal/ui"
	"github.com/empdex/empdex/internal/watcher"
)

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	csvPath      string
	exclude      string
	forcePoll    bool
	noJournal    bool
	noInitialRun bool
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [collection]",
		Short: "Re-ingest the CSV whenever it changes",
		Long: `Watch the employee CSV and re-run the ingest pipeline on every
change.

File events are debounced so one spreadsheet export triggers one run,
and a content hash skips runs when the bytes did not change. An ingest
runs immediately on start unless --no-initial-run is given. Stop with
Ctrl-C.`,
		Example: `  empdex watch
  empdex watch employees-alt --exclude Gender
  empdex watch --csv exports/latest.csv --force-poll`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collection := ""
			if len(args) > 0 {
				collection = args[0]
			}
			return runWatch(ctx, cmd, collection, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV file to watch (default from config)")
	cmd.Flags().StringVarP(&opts.exclude, "exclude", "x", "", "Schema column to drop before indexing")
	cmd.Flags().BoolVar(&opts.forcePoll, "force-poll", false, "Poll for changes instead of using file notifications")
	cmd.Flags().BoolVar(&opts.noJournal, "no-journal", false, "Skip recording watch runs in the journal")
	cmd.Flags().BoolVar(&opts.noInitialRun, "no-initial-run", false, "Do not ingest before the first change")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, collection string, opts watchOptions) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	runCfg := resolveRunnerConfig(cfg, collection, opts.csvPath, "", opts.exclude)

	out := output.New(cmd.OutOrStdout())

	// Watch prints one summary per run; the live TUI would fight the
	// long-running transcript.
	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(true),
		ui.WithSource(runCfg.CSVPath)))
	if err := renderer.Start(ctx); err != nil {
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

	coordinator, err := ingest.NewCoordinator(runner, ingest.WatchConfig{
		Run: runCfg,
		Watch: watcher.Options{
			DebounceWindow: cfg.Watch.DebounceDuration(),
			PollInterval:   cfg.Watch.PollIntervalDuration(),
			ForcePoll:      opts.forcePoll || cfg.Watch.ForcePoll,
		},
		IngestOnStart: !opts.noInitialRun,
	})
	if err != nil {
		return fmt.Errorf("failed to create watch coordinator: %w", err)
	}

	out.Statusf("👀", "Watching %s (collection %q)", runCfg.CSVPath, runCfg.Collection)
	out.Status("💡", "Press Ctrl-C to stop")
	out.Newline()

	return coordinator.Watch(ctx)
}
