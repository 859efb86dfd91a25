// Package cmd implements the CLI commands for storefront-query.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "storefront-query",
	Short: "Query storefront catalogs and visual search",
	Long: "A local service that signs catalog requests with OAuth1, keeps the " +
		"visual-search bearer token fresh and serves category browse and " +
		"visual search as a JSON API.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
