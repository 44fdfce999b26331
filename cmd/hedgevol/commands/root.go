package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool

	// Portfolio flags, shared by every evaluating command
	ptf portfolioFlags
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hedgevol",
	Short: "Delta-hedged option P&L and implied volatility on historical prices",
	Long: `hedgevol replays a historical price path, delta-hedges a European option
along it under an assumed volatility, and reports the hedge P&L. It also
solves for the volatility at which that P&L is zero (or any target).

Prices come from a CSV file (--csv) or from the daily_prices table (--symbol).

Usage:
  go run ./cmd/hedgevol [command]

Examples:
  go run ./cmd/hedgevol info --csv spx.csv --last-months 12
  go run ./cmd/hedgevol pnl --csv spx.csv --last-months 12 --vol 0.2
  go run ./cmd/hedgevol ivol --csv spx.csv --last-months 12 --strike-pct 100
  go run ./cmd/hedgevol skew --csv spx.csv --last-months 12 --strikes 80,90,100,110,120
  go run ./cmd/hedgevol scenario run scenarios/spx_1y.yaml
  go run ./cmd/hedgevol api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	ptf.register(rootCmd)
}
