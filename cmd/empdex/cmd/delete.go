package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/errors"
	"github.com/empdex/empdex/internal/esindex"
	"github.com/empdex/empdex/internal/output"
)

func newDeleteCmd() *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "delete <employee-id>",
		Short: "Delete one employee document",
		Long: `Delete the document with the given Employee ID from a collection.

Deleting an identifier that is not in the collection is reported as a
warning, not a failure.`,
		Example: `  empdex delete E02003
  empdex delete E02003 --collection employees-alt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd.Context(), cmd, args[0], collection)
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Target collection (default from config)")

	return cmd
}

func runDelete(ctx context.Context, cmd *cobra.Command, id, collection string) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	if collection == "" {
		collection = cfg.Collections.Primary
	}

	gateway, err := newOperations(cfg)
	if err != nil {
		return err
	}

	return deleteAndReport(ctx, gateway, output.New(cmd.OutOrStdout()), collection, id)
}

// deleteAndReport deletes one document and prints the outcome. A
// missing document is a warning, every other failure is returned.
// Shared with the demo sequence.
func deleteAndReport(ctx context.Context, gw esindex.Operations, out *output.Writer, collection, id string) error {
	if err := gw.Delete(ctx, collection, id); err != nil {
		if errors.GetCode(err) == errors.ErrCodeDocumentNotFound {
			out.Warningf("No document %q in %q", id, collection)
			return nil
		}
		return err
	}
	out.Successf("Deleted %q from %q", id, collection)
	return nil
}
