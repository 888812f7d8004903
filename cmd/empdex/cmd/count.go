package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/esindex"
	"github.com/empdex/empdex/internal/output"
)

// countOutput is the JSON shape for the count command.
type countOutput struct {
	Collection string `json:"collection"`
	Count      int64  `json:"count"`
}

func newCountCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "count [collection]",
		Short: "Count documents in a collection",
		Long: `Print the number of employee documents in a collection.

The collection defaults to the configured primary collection.`,
		Example: `  empdex count
  empdex count employees-alt
  empdex count --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collection := ""
			if len(args) > 0 {
				collection = args[0]
			}
			return runCount(cmd.Context(), cmd, collection, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runCount(ctx context.Context, cmd *cobra.Command, collection string, jsonOutput bool) error {
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
		n, err := gateway.Count(ctx, collection)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(countOutput{Collection: collection, Count: n})
	}

	return printCount(ctx, gateway, output.New(cmd.OutOrStdout()), collection)
}

// printCount fetches and prints the document count of one collection.
// Shared with the demo sequence.
func printCount(ctx context.Context, gw esindex.Operations, out *output.Writer, collection string) error {
	n, err := gw.Count(ctx, collection)
	if err != nil {
		return err
	}
	out.Statusf("🔢", "%d document(s) in %q", n, collection)
	return nil
}
