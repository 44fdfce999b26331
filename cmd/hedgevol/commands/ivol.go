package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/hedgevol/internal/hedge"
	"github.com/wonny/hedgevol/internal/volsolver"
)

// ivolCmd represents the ivol command
var ivolCmd = &cobra.Command{
	Use:   "ivol",
	Short: "Volatility at which the hedge P&L hits the target",
	Long: `Solves pnl(mode, vol) = target by bisection on [--v-low, --v-high].

The bracket must straddle a sign change; otherwise the command fails with
"no bracket". --check scans the bracket first and warns when the P&L changes
sign more than once (bisection then returns one of several roots).

Example:
  go run ./cmd/hedgevol ivol --csv spx.csv --last-months 12 --strike-pct 100
  go run ./cmd/hedgevol ivol --csv spx.csv --mode robust --v-low 0.01 --v-high 2`,
	RunE: runIVol,
}

// solverFlags override the configured solver defaults
type solverFlags struct {
	vLow, vHigh    float64
	tol, precision float64
	maxIter        int
	policy         string
	target         float64

	cmd *cobra.Command
}

var (
	ivolSolver solverFlags
	ivolCheck  bool
)

func (f *solverFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&f.vLow, "v-low", 0, "lower volatility bound (default IVOL_VLOW)")
	fs.Float64Var(&f.vHigh, "v-high", 0, "upper volatility bound (default IVOL_VHIGH)")
	fs.Float64Var(&f.tol, "tol", 0, "bracket width tolerance (default IVOL_TOL)")
	fs.Float64Var(&f.precision, "precision", 0, "|pnl - target| tolerance (default IVOL_PRECISION)")
	fs.IntVar(&f.maxIter, "max-iter", 0, "iteration budget (default IVOL_MAX_ITER)")
	fs.StringVar(&f.policy, "policy", "", "stop policy: width_or_value|value_only")
	fs.Float64Var(&f.target, "target", 0, "target P&L")
	f.cmd = cmd
}

func (f *solverFlags) apply(base volsolver.Config) volsolver.Config {
	fs := f.cmd.Flags()
	if fs.Changed("v-low") {
		base.VLow = f.vLow
	}
	if fs.Changed("v-high") {
		base.VHigh = f.vHigh
	}
	if fs.Changed("tol") {
		base.Tol = f.tol
	}
	if fs.Changed("precision") {
		base.Precision = f.precision
	}
	if fs.Changed("max-iter") {
		base.MaxIter = f.maxIter
	}
	if f.policy != "" {
		base.Policy = volsolver.StopPolicy(f.policy)
	}
	if fs.Changed("target") {
		base.Target = f.target
	}
	return base
}

func init() {
	rootCmd.AddCommand(ivolCmd)

	ivolSolver.register(ivolCmd)
	ivolCmd.Flags().BoolVar(&ivolCheck, "check", false, "scan the bracket for multiple roots first")
}

func runIVol(cmd *cobra.Command, args []string) error {
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
	solver := ivolSolver.apply(a.solverConfig())

	snap := p.Snapshot()
	if ivolCheck {
		n, err := volsolver.SignChanges(func(v float64) (float64, error) {
			return hedge.PnL(snap, mode, v, kind)
		}, solver.VLow, solver.VHigh, solver.Target, 100)
		if err != nil {
			return err
		}
		if n > 1 {
			PrintWarning(fmt.Sprintf("P&L changes sign %d times on [%g, %g]", n, solver.VLow, solver.VHigh))
		}
	}

	res, err := p.ImpliedVol(mode, kind, solver)
	if err != nil {
		if !jsonOutput {
			PrintError(err.Error())
		}
		return err
	}

	if jsonOutput {
		return PrintJSON(map[string]interface{}{
			"info":   p.Info(),
			"mode":   mode,
			"kind":   kind,
			"result": res,
		})
	}

	PrintHeader(fmt.Sprintf("Implied volatility (%s, %s)", mode, kind), p.Info())
	fmt.Printf("  Vol        : %.6f\n", res.Vol)
	fmt.Printf("  Iterations : %d\n", res.Iterations)
	fmt.Printf("  Residual   : %.3e\n", res.Residual)
	if ivolCheck {
		// premium sensitivity at the solved vol
		at, err := hedge.Simulate(snap, mode, res.Vol, kind, false)
		if err != nil {
			return err
		}
		fmt.Printf("  Premium    : %.6f\n", at.Premium)
		fmt.Printf("  Vega       : %.6f\n", at.Vega)
	}
	return nil
}
