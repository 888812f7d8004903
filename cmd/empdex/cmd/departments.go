package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/esindex"
	"github.com/empdex/empdex/internal/output"
)

// facetOutput is the JSON shape for the departments command.
type facetOutput struct {
	Collection  string        `json:"collection"`
	Departments []facetBucket `json:"departments"`
}

type facetBucket struct {
	Department string `json:"department"`
	Count      int64  `json:"count"`
}

func newDepartmentsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "departments [collection]",
		Short: "Show document counts per department",
		Long: `Print the per-department document counts of a collection, largest
department first.

The collection defaults to the configured primary collection.`,
		Example: `  empdex departments
  empdex departments employees-alt --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := ""
			if len(args) > 0 {
				collection = args[0]
			}
			return runDepartments(cmd.Context(), cmd, collection, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDepartments(ctx context.Context, cmd *cobra.Command, collection string, jsonOutput bool) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	if collection == "" {
		collection = cfg.Collections.Primary
	}

	gateway, err := newOperations(cfg)
	if err != nil {
		return err
	}

	if jsonOutput {
		buckets, err := gateway.DepartmentFacet(ctx, collection)
		if err != nil {
			return err
		}
		result := facetOutput{Collection: collection, Departments: make([]facetBucket, 0, len(buckets))}
		for _, b := range buckets {
			result.Departments = append(result.Departments, facetBucket{Department: b.Department, Count: b.Count})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return printFacet(ctx, gateway, cmd.OutOrStdout(), collection)
}

// printFacet fetches and prints the department facet of one
// collection. Shared with the demo sequence.
func printFacet(ctx context.Context, gw esindex.Operations, w io.Writer, collection string) error {
	buckets, err := gw.DepartmentFacet(ctx, collection)
	if err != nil {
		return err
	}

	out := output.New(w)
	if len(buckets) == 0 {
		out.Statusf("🏢", "No departments in %q", collection)
		return nil
	}

	out.Statusf("🏢", "Departments in %q:", collection)
	for _, b := range buckets {
		_, _ = fmt.Fprintf(w, "   %-24s %d\n", b.Department, b.Count)
	}
	return nil
}
