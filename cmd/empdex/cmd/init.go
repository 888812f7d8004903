package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/configs"
	"github.com/empdex/empdex/internal/output"
)

// projectConfigName is the per-project configuration file written by
// init --project.
const projectConfigName = ".empdex.yaml"

func newInitCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "init [collection...]",
		Short: "Create collections with the employee mapping",
		Long: `Create collections with the employee schema mapping.

Existing collections are left untouched. With no arguments the two
configured collections are created (primary and secondary).

With --project, a ` + projectConfigName + ` template is also written to the
current directory for per-project settings.`,
		Example: `  # Create the configured collections
  empdex init

  # Create specific collections
  empdex init staff staff-archive

  # Also write a project config template
  empdex init --project`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.Context(), cmd, args, project)
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Also write a "+projectConfigName+" template to the current directory")

	return cmd
}

func runInit(ctx context.Context, cmd *cobra.Command, collections []string, project bool) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	out := output.New(cmd.OutOrStdout())

	if len(collections) == 0 {
		collections = []string{cfg.Collections.Primary, cfg.Collections.Secondary}
	}

	gateway, err := newOperations(cfg)
	if err != nil {
		return err
	}

	esVersion, err := gateway.Ping(ctx)
	if err != nil {
		return err
	}
	out.Statusf("🔌", "Connected to Elasticsearch %s", esVersion)

	for _, name := range collections {
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

	if project {
		if err := writeProjectConfig(out); err != nil {
			return err
		}
	}

	return nil
}

// writeProjectConfig writes the embedded project config template to the
// current directory. An existing file is never overwritten.
func writeProjectConfig(out *output.Writer) error {
	if _, err := os.Stat(projectConfigName); err == nil {
		out.Warning("Project configuration already exists")
		out.Statusf("📁", "Location: %s", projectConfigName)
		return nil
	}

	if err := os.WriteFile(projectConfigName, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}

	out.Successf("Created %s", projectConfigName)
	out.Status("💡", "Edit it to pin the CSV path and collection names for this project")
	return nil
}
