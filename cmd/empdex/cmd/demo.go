package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/config"
	"github.com/empdex/empdex/internal/employee"
	"github.com/empdex/empdex/internal/esindex"
	"github.com/empdex/empdex/internal/ingest"
	"github.com/empdex/empdex/internal/journal"
	"github.com/empdex/empdex/internal/output"
	"github.com/empdex/empdex/internal/ui"
)

// demoDeleteID is the employee removed in the deletion step.
const demoDeleteID = "E02003"

// demoSearchSize caps the hits shown per demo search.
const demoSearchSize = 10

// demoOptions holds CLI flags for demo.
type demoOptions struct {
	csvPath   string
	noJournal bool
}

func newDemoCmd() *cobra.Command {
	var opts demoOptions

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the scripted demonstration sequence",
		Long: `Run a fixed sequence of operations against two collections:

  1. Create both collections (idempotent)
  2. Count the first collection
  3. Ingest the CSV into the first collection, excluding Department
  4. Ingest the CSV into the second collection, excluding Gender
  5. Delete employee ` + demoDeleteID + ` from the first collection
  6. Count the first collection again
  7. Search the first collection: Department = IT, then Gender = Male
  8. Search the second collection: Department = IT
  9. Show the department facet of both collections

The collection names come from the configuration (defaults employees
and employees-alt).`,
		Example: `  empdex demo
  empdex demo --csv exports/latest.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDemo(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV file to ingest (default from config)")
	cmd.Flags().BoolVar(&opts.noJournal, "no-journal", false, "Skip recording the demo runs in the journal")

	return cmd
}

func runDemo(ctx context.Context, cmd *cobra.Command, opts demoOptions) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	out := output.New(cmd.OutOrStdout())

	gateway, err := newOperations(cfg)
	if err != nil {
		return err
	}

	j := openJournal(cfg, opts.noJournal)
	if j != nil {
		defer func() { _ = j.Close() }()
	}

	primary := cfg.Collections.Primary
	secondary := cfg.Collections.Secondary
	csvPath := cfg.CSV.Path
	if opts.csvPath != "" {
		csvPath = opts.csvPath
	}

	// 1. Create both collections.
	for _, name := range []string{primary, secondary} {
		created, err := gateway.EnsureCollection(ctx, name)
		if err != nil {
			return err
		}
		if created {
			out.Successf("Created collection %q", name)
		} else {
			out.Statusf("✓", "Collection %q already exists", name)
		}
	}

	// 2. Count before ingestion.
	out.Newline()
	if err := printCount(ctx, gateway, out, primary); err != nil {
		return err
	}

	// 3 + 4. Ingest the CSV into each collection, a different column
	// left out of each.
	ingests := []struct {
		collection string
		exclude    string
	}{
		{primary, employee.FieldDepartment},
		{secondary, employee.FieldGender},
	}
	for _, step := range ingests {
		out.Newline()
		out.Statusf("📥", "Ingesting %s into %q (excluding %s)", csvPath, step.collection, step.exclude)
		if err := demoIngest(ctx, cmd, cfg, gateway, j, step.collection, csvPath, step.exclude); err != nil {
			return err
		}
	}

	// 5. Delete one employee. A missing id is reported, not fatal.
	out.Newline()
	if err := deleteAndReport(ctx, gateway, out, primary, demoDeleteID); err != nil {
		return err
	}

	// 6. Count after deletion.
	if err := printCount(ctx, gateway, out, primary); err != nil {
		return err
	}

	// 7 + 8. Exact searches across both collections. The first
	// collection was indexed without Department, so that search is
	// expected to come back empty.
	searches := []struct {
		collection, field, value string
	}{
		{primary, employee.FieldDepartment, "IT"},
		{primary, employee.FieldGender, "Male"},
		{secondary, employee.FieldDepartment, "IT"},
	}
	for _, s := range searches {
		out.Newline()
		if err := searchAndReport(ctx, cmd, gateway, j, s.collection, s.field, s.value, demoSearchSize, false); err != nil {
			return err
		}
	}

	// 9. Department facet of both collections.
	for _, name := range []string{primary, secondary} {
		out.Newline()
		if err := printFacet(ctx, gateway, cmd.OutOrStdout(), name); err != nil {
			return err
		}
	}

	return nil
}

// demoIngest runs one ingest with a plain renderer. The demo output is
// a sequential transcript, so the live TUI stays off.
func demoIngest(ctx context.Context, cmd *cobra.Command, cfg *config.Config, gateway esindex.Operations, j *journal.Journal, collection, csvPath, exclude string) error {
	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(true),
		ui.WithSource(csvPath)))
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	deps := ingest.RunnerDependencies{
		Renderer: renderer,
		Indexer:  gateway,
	}
	if j != nil {
		deps.Journal = j
	}

	runner, err := ingest.NewRunner(deps)
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, ingest.RunnerConfig{
		Collection: collection,
		CSVPath:    csvPath,
		Encoding:   cfg.CSV.Encoding,
		Exclude:    exclude,
		LockPath:   cfg.LockPath(),
	})
	return err
}
