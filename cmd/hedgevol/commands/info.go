package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the portfolio parameters and window",
	Long: `Loads the series, applies the portfolio flags and prints the resulting
parameters: name, spot, maturity, strike, rate, dividend and window bounds.

Example:
  go run ./cmd/hedgevol info --csv spx.csv --last-months 12 --strike-pct 90`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := ptf.build(ctx, a)
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(p.Info())
	}
	fmt.Println(p.Info())
	return nil
}
