package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/hedgevol/internal/contracts"
)

// pnlCmd represents the pnl command
var pnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Hedge P&L at a given volatility",
	Long: `Replays the window under the volatility --vol and prints the hedge P&L.

Without --mode set explicitly, all three modes are printed:
  auto    self-financing replication (premium borrowed, stock proceeds lent)
  delta   option value change minus the delta leg, no financing
  robust  gamma-weighted sum of realized minus implied variance

--trace prints every rebalancing step of the selected mode.

Example:
  go run ./cmd/hedgevol pnl --csv spx.csv --last-months 12 --vol 0.18
  go run ./cmd/hedgevol pnl --csv spx.csv --last-months 1 --vol 0.18 --mode robust --trace`,
	RunE: runPnL,
}

var (
	pnlVol   float64
	pnlTrace bool
)

func init() {
	rootCmd.AddCommand(pnlCmd)

	pnlCmd.Flags().Float64Var(&pnlVol, "vol", 0.2, "assumed volatility")
	pnlCmd.Flags().BoolVar(&pnlTrace, "trace", false, "print per-step records")
}

func runPnL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mode, kind, err := ptf.parse()
	if err != nil {
		return err
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := ptf.build(ctx, a)
	if err != nil {
		return err
	}

	modes := []contracts.PnLMode{contracts.ModeAutoFinancing, contracts.ModeDelta, contracts.ModeRobust}
	if ptf.changed("mode") || pnlTrace {
		modes = []contracts.PnLMode{mode}
	}

	if pnlTrace {
		res, err := p.Simulate(mode, pnlVol, kind)
		if err != nil {
			return err
		}
		if jsonOutput {
			return PrintJSON(res)
		}

		PrintHeader(fmt.Sprintf("Hedge P&L trace (%s, %s, vol %.4f)", mode, kind, pnlVol), p.Info())
		widths := []int{6, 12, 10, 12, 12, 14, 14}
		PrintTableHeader([]string{"Step", "Spot", "Tau", "Delta", "Gamma", "Cash", "P&L"}, widths)
		for _, st := range res.Steps {
			PrintTableRow([]string{
				fmt.Sprint(st.Index), fmtFloat(st.Spot), fmt.Sprintf("%.5f", st.Tau),
				fmtFloat(st.Delta), fmtFloat(st.Gamma), fmtFloat(st.Cash), fmtFloat(st.PnL),
			}, widths)
		}
		PrintSeparator()
		fmt.Printf("  Premium %.6f  Vega %.6f  Payoff %.6f  P&L %.6f\n", res.Premium, res.Vega, res.Payoff, res.PnL)
		return nil
	}

	results := make(map[contracts.PnLMode]float64, len(modes))
	for _, m := range modes {
		v, err := p.PnL(m, pnlVol, kind)
		if err != nil {
			return err
		}
		results[m] = v
	}

	if jsonOutput {
		return PrintJSON(map[string]interface{}{
			"info": p.Info(),
			"kind": kind,
			"vol":  pnlVol,
			"pnl":  results,
		})
	}

	PrintHeader(fmt.Sprintf("Hedge P&L (%s, vol %.4f)", kind, pnlVol), p.Info())
	widths := []int{10, 16}
	PrintTableHeader([]string{"Mode", "P&L"}, widths)
	for _, m := range modes {
		PrintTableRow([]string{string(m), fmtFloat(results[m])}, widths)
	}
	return nil
}
