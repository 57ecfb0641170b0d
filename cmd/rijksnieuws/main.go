// Package main provides the rijksnieuws command line tool, which collects
// Rijksoverheid news articles into a date-keyed JSON file.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rijksnieuws",
	Short: "Collect Dutch government news articles",
	Long: "rijksnieuws fetches news articles published by the Rijksoverheid, from the " +
		"sitearchief web archive, the open-data API or the live RSS feed, and merges them " +
		"into a single JSON file keyed by publication date.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
