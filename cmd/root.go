package main

import (
	"github.com/spf13/cobra"
)

var flagTimeout string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "docsearch",
		Short:        "Serve and query Sphinx searchindex.js artifacts",
		SilenceUsage: true,
		Long: `docsearch loads the searchindex.js artifact produced by a Sphinx build
and answers term lookups and document resolutions over HTTP or from the shell.`,
	}

	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "10s", "Timeout for fetching an artifact over http(s)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newResolveCmd())

	return rootCmd
}
