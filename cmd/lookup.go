package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/meghashyamc/docsearch/db/searchindex"
	"github.com/meghashyamc/docsearch/services/index"
	"github.com/spf13/cobra"
)

var flagLookupAll bool

func newLookupCmd() *cobra.Command {
	lookupCmd := &cobra.Command{
		Use:   "lookup <artifact> <term>...",
		Short: "Print the documents matching each term",
		Long: `Print the documents matching each term, title matches first.
With --all only the documents matching every term are printed.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runLookup,
	}
	lookupCmd.Flags().BoolVar(&flagLookupAll, "all", false, "Only print documents matching every term")

	return lookupCmd
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <artifact> <index>",
		Short: "Print the source filename of a document index",
		Args:  cobra.ExactArgs(2),
		RunE:  runResolve,
	}
}

func runLookup(cmd *cobra.Command, args []string) error {
	idx, err := loadArtifact(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	terms := args[1:]

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TERM\tINDEX\tDOCUMENT\tTITLE")

	if flagLookupAll {
		writeRefs(w, strings.Join(terms, "+"), idx.LookupAll(terms))
		return w.Flush()
	}

	for _, term := range terms {
		writeRefs(w, term, idx.Lookup(term))
	}
	return w.Flush()
}

func writeRefs(w *tabwriter.Writer, term string, refs []searchindex.DocumentRef) {
	if len(refs) == 0 {
		fmt.Fprintf(w, "%s\t-\t(no matches)\t\n", term)
		return
	}
	for _, ref := range refs {
		title := ref.Title
		if ref.TitleMatch {
			title += " *"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", term, ref.Index, ref.Document, title)
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	docIndex, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("document index must be an integer, got %q", args[1])
	}

	idx, err := loadArtifact(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	filename, err := idx.Resolve(docIndex)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), filename)
	return nil
}

func loadArtifact(ctx context.Context, location string) (*searchindex.Index, error) {
	timeout, err := time.ParseDuration(flagTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid --timeout %q: %w", flagTimeout, err)
	}

	source, err := index.NewSource(location, timeout)
	if err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return searchindex.Load(raw)
}
