package main

import (
	"fmt"

	"github.com/meghashyamc/docsearch/api"
	"github.com/meghashyamc/docsearch/config"
	"github.com/spf13/cobra"
)

var flagServeEnv string

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&flagServeEnv, "env", "", "Config environment (defaults to $ENV, then local)")

	return serveCmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagServeEnv)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return api.Run(cmd.Context(), cfg)
}
