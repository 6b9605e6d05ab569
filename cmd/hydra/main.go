// Package main provides the hydra binary: hybrid retrieval over a
// shared dense+sparse index, with ingestion over an event bus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hydra",
		Short: "Hydra - hybrid retrieval and reranking pipeline",
		Long: `Hydra retrieves document chunks with parallel dense and sparse search,
reciprocal rank fusion, entity boosting, cross-encoder reranking, and
per-document diversification.

Run 'hydra init' once to create the index, 'hydra ingest' to index
documents, and 'hydra query' to search.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(
		initCmd(),
		queryCmd(),
		ingestCmd(),
		deleteCmd(),
		consumeCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hydra %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
