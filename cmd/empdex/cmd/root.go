// Package cmd provides the CLI commands for empdex.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/config"
	"github.com/empdex/empdex/internal/employee"
	"github.com/empdex/empdex/internal/esindex"
	"github.com/empdex/empdex/internal/journal"
	"github.com/empdex/empdex/internal/logging"
	"github.com/empdex/empdex/internal/profiling"
	"github.com/empdex/empdex/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the empdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "empdex",
		Short: "Employee CSV indexing for Elasticsearch",
		Long: `Empdex loads an employee CSV export, cleans the values, and indexes
one document per employee into Elasticsearch.

Beyond ingestion it exposes the collection operations directly
(search, count, delete, department facet), can watch the CSV and
re-ingest on change, and keeps a local journal of runs.

Run 'empdex demo' for a scripted tour against a local cluster.`,
		Version: version.Version,
	}

	// Set version template
	cmd.SetVersionTemplate("empdex version {{.Version}}\n")

	// Profiling flags
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.empdex/logs/")

	// Setup profiling and logging hooks
	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	// Add subcommands
	cmd.AddCommand(newDemoCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newCountCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newDepartmentsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts CPU/trace profiling and debug logging if flags are set.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error

	// Start debug logging if enabled
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	// Start CPU profiling
	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}

	// Start trace profiling
	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return nil
}

// stopProfilingAndLogging stops profiling and logging, writes memory profile if requested.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	// Stop CPU profiling
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}

	// Stop tracing
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}

	// Write memory profile if requested
	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	// Stop debug logging
	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}

	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// newOperations builds the live gateway for a command invocation.
// Declared as a variable so command tests can substitute a fake engine.
var newOperations = func(cfg *config.Config) (esindex.Operations, error) {
	es, err := esindex.NewClient(cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}
	return esindex.NewGateway(es, employee.Default(), cfg.Ingest.Refresh), nil
}

// loadConfig loads the layered configuration starting from the current
// directory. A load failure falls back to defaults so read-only
// commands keep working.
func loadConfig() *config.Config {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root = "."
	}
	cfg, err := config.Load(root)
	if err != nil {
		slog.Warn("config load failed, using defaults", slog.String("error", err.Error()))
		cfg = config.NewConfig()
	}
	return cfg
}

// setupRunLogging initializes the file log trail for a command run and
// returns its cleanup func. Debug mode already configured logging in
// the persistent hook, so this is a no-op then.
func setupRunLogging(cfg *config.Config) func() {
	if debugMode {
		return func() {}
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Level != "" {
		logCfg.Level = cfg.Logging.Level
	}
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
	}
	if cfg.Logging.MaxSizeMB > 0 {
		logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxFiles > 0 {
		logCfg.MaxFiles = cfg.Logging.MaxFiles
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Continue without the log trail - not critical for CLI
		return func() {}
	}
	slog.SetDefault(logger)
	return cleanup
}

// openJournal opens the run journal unless it is disabled by flag or
// config. A journal failure is logged and reported as nil so the
// command itself still runs.
func openJournal(cfg *config.Config, disabled bool) *journal.Journal {
	if disabled || cfg.Journal.Disabled {
		return nil
	}
	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		slog.Warn("journal unavailable", slog.String("error", err.Error()))
		return nil
	}
	return j
}
