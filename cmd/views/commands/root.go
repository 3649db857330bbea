package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	viewsConfigPath string
	verbose         bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "views",
	Short: "News sentiment → Black-Litterman investor views",
	Long: `News sentiment views CLI

Discovers news per instrument, classifies it with FinBERT, weights each
article by source credibility and recency, and maps the aggregated
sentiment to bounded expected-return views.

Usage:
  go run ./cmd/views [command]

Examples:
  go run ./cmd/views run --tickers MSFT,GOOGL
  go run ./cmd/views score --file scored.json
  go run ./cmd/views api
  go run ./cmd/views scheduler start
  go run ./cmd/views config check --file config/views/default.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&viewsConfigPath, "views-config", "", "views YAML (default: $VIEWS_CONFIG_PATH or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
