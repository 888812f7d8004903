package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/empdex/empdex/internal/esindex"
	"github.com/empdex/empdex/internal/journal"
	"github.com/empdex/empdex/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	collection string
	size       int
	jsonOutput bool
	noJournal  bool
}

// searchJSONOutput is the JSON shape for the search command.
type searchJSONOutput struct {
	Collection string          `json:"collection"`
	Field      string          `json:"field"`
	Value      string          `json:"value"`
	Total      int64           `json:"total"`
	Hits       []searchJSONHit `json:"hits"`
}

type searchJSONHit struct {
	ID     string         `json:"id"`
	Source map[string]any `json:"source"`
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <field> <value>",
		Short: "Find employees by exact field match",
		Long: `Search a collection for employees whose field matches a value.

Keyword, integer, float, and date fields match exactly; text fields
use full-text matching. Field names are the CSV header names, for
example "Department" or "Full Name".`,
		Example: `  empdex search Department IT
  empdex search Gender Male --collection employees-alt
  empdex search "Full Name" "Kai Le" --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.collection, "collection", "c", "", "Collection to search (default from config)")
	cmd.Flags().IntVarP(&opts.size, "size", "n", 10, "Maximum number of hits to return")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.noJournal, "no-journal", false, "Skip recording this search in the journal")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, field, value string, opts searchOptions) error {
	cfg := loadConfig()
	defer setupRunLogging(cfg)()

	collection := opts.collection
	if collection == "" {
		collection = cfg.Collections.Primary
	}

	slog.Info("search_started",
		slog.String("collection", collection),
		slog.String("field", field),
		slog.String("value", value))

	gateway, err := newOperations(cfg)
	if err != nil {
		return err
	}

	var j *journal.Journal
	if j = openJournal(cfg, opts.noJournal); j != nil {
		defer func() { _ = j.Close() }()
	}

	return searchAndReport(ctx, cmd, gateway, j, collection, field, value, opts.size, opts.jsonOutput)
}

// searchAndReport runs one search, journals it, and prints the hits.
// Shared with the demo sequence.
func searchAndReport(ctx context.Context, cmd *cobra.Command, gw esindex.Operations, j *journal.Journal, collection, field, value string, size int, jsonOutput bool) error {
	res, err := gw.SearchByField(ctx, collection, field, value, size)
	if err != nil {
		return err
	}

	if j != nil {
		rec := &journal.Search{Collection: collection, Field: field, Value: value, Hits: res.Total}
		if err := j.RecordSearch(ctx, rec); err != nil {
			slog.Warn("journal search record failed", slog.String("error", err.Error()))
		}
	}

	return printSearchResult(cmd, res, collection, field, value, jsonOutput)
}

// printSearchResult renders one search result as text or JSON.
func printSearchResult(cmd *cobra.Command, res *esindex.SearchResult, collection, field, value string, jsonOutput bool) error {
	if jsonOutput {
		result := searchJSONOutput{
			Collection: collection,
			Field:      field,
			Value:      value,
			Total:      res.Total,
			Hits:       make([]searchJSONHit, 0, len(res.Hits)),
		}
		for _, h := range res.Hits {
			result.Hits = append(result.Hits, searchJSONHit{ID: h.ID, Source: h.Source})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	out := output.New(cmd.OutOrStdout())
	if res.Total == 0 {
		out.Statusf("🔍", "No employees match %s = %q in %q", field, value, collection)
		return nil
	}

	out.Statusf("🔍", "%d employee(s) match %s = %q in %q", res.Total, field, value, collection)
	for _, hit := range res.Hits {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   %-8s %s\n", hit.ID, hitSummary(hit.Source))
	}
	if int64(len(res.Hits)) < res.Total {
		out.Statusf("", "(showing %d of %d)", len(res.Hits), res.Total)
	}
	return nil
}

// hitSummary renders the most identifying fields of one document.
// Fields excluded at ingest time are simply absent.
func hitSummary(source map[string]any) string {
	parts := make([]string, 0, 3)
	for _, field := range []string{"Full Name", "Job Title", "Department"} {
		if v, ok := source[field]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}
	return strings.Join(parts, ", ")
}
