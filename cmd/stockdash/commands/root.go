package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	apiURL       string
	cacheBackend string
	envFile      string
	verbose      bool
	jsonOutput   bool
	assumeYes    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stockdash",
	Short: "stockdash - inventory dashboard for the terminal",
	Long: `stockdash is a terminal client for the inventory REST backend.

Features:
  - Products, stock adjustments and low-stock alerts
  - Purchase and sale transactions with date-range filters
  - User management with an offline fallback cache
  - CSV, printable HTML and XLSX reports
  - Interactive dashboard (stockdash dashboard)`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Backend URL (overrides STOCKDASH_API_URL)")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache", "", "Durable cache backend: file, redis or memory (overrides STOCKDASH_CACHE)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load settings from this .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
}
