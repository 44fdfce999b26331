package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/hedgevol/internal/skew"
)

// skewCmd represents the skew command
var skewCmd = &cobra.Command{
	Use:   "skew",
	Short: "Implied volatility across strikes",
	Long: `Solves the implied volatility for each strike in --strikes (percent of the
price at the window start) in parallel, SKEW_WORKERS at a time.
A strike that fails (for example no bracket) is reported and does not stop the others.

Example:
  go run ./cmd/hedgevol skew --csv spx.csv --last-months 12 --strikes 60,70,80,90,100,110,120`,
	RunE: runSkew,
}

var (
	skewStrikes []float64
	skewSolver  solverFlags
	skewWorkers int
)

func init() {
	rootCmd.AddCommand(skewCmd)

	skewCmd.Flags().Float64SliceVar(&skewStrikes, "strikes", []float64{60, 70, 80, 90, 100, 110, 120}, "strikes in percent of spot")
	skewCmd.Flags().IntVar(&skewWorkers, "workers", 0, "parallel solves (default SKEW_WORKERS)")
	skewSolver.register(skewCmd)
}

func runSkew(cmd *cobra.Command, args []string) error {
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

	workers := a.cfg.SkewWorkers
	if skewWorkers > 0 {
		workers = skewWorkers
	}

	points, err := skew.NewCalculator(workers, a.log).Compute(ctx, p, skew.Request{
		Strikes: skewStrikes,
		Mode:    mode,
		Kind:    kind,
		Solver:  skewSolver.apply(a.solverConfig()),
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(map[string]interface{}{"info": p.Info(), "mode": mode, "kind": kind, "points": points})
	}

	PrintHeader(fmt.Sprintf("Volatility skew (%s, %s)", mode, kind), p.Info())
	printSkew(points)
	return nil
}

func printSkew(points []skew.Point) {
	widths := []int{10, 12, 12, 6}
	PrintTableHeader([]string{"Strike %", "Strike", "Vol", "Iter"}, widths)
	for _, pt := range points {
		if !pt.OK() {
			PrintTableRow([]string{fmt.Sprintf("%.2f", pt.StrikePct), fmtFloat(pt.Strike), "-", "-"}, widths)
			fmt.Printf("    ↳ %s\n", pt.Error)
			continue
		}
		PrintTableRow([]string{
			fmt.Sprintf("%.2f", pt.StrikePct), fmtFloat(pt.Strike), fmtFloat(pt.Vol), fmt.Sprint(pt.Iterations),
		}, widths)
	}
}
