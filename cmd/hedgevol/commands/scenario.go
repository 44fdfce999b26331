package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/hedgevol/internal/scenario"
	"github.com/wonny/hedgevol/internal/skew"
)

// scenarioCmd represents the scenario command
var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run scenario files",
	Long: `A scenario is a YAML file naming the price source, window, option and
what to compute (implied vol, P&L table, skew). Unknown keys are rejected.

Subcommands:
  run   - evaluate a scenario
  hash  - print the canonical hash of a scenario

Example:
  go run ./cmd/hedgevol scenario run scenarios/spx_1y.yaml
  go run ./cmd/hedgevol scenario hash scenarios/spx_1y.yaml`,
}

var (
	scenarioRunCmd = &cobra.Command{
		Use:   "run [file]",
		Short: "Evaluate a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	scenarioHashCmd = &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the scenario hash",
		Args:  cobra.ExactArgs(1),
		RunE:  hashScenario,
	}
)

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioRunCmd)
	scenarioCmd.AddCommand(scenarioHashCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, raw, err := scenario.Load(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	snap, err := scenario.NewRunSnapshot(cfg, raw)
	if err != nil {
		return err
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	log := a.log.WithField("run_id", snap.RunID)
	runner := scenario.NewRunner(a.repository(), skew.NewCalculator(a.cfg.SkewWorkers, log), log)

	report, err := runner.Run(ctx, cfg)
	if err != nil {
		return err
	}
	report.Snapshot = snap

	if jsonOutput {
		return PrintJSON(report)
	}

	PrintHeader(fmt.Sprintf("Scenario %s (%s, %s)", cfg.Meta.Name, report.Mode, report.Kind), report.Info)
	fmt.Printf("  Run ID     : %s\n", snap.RunID)
	fmt.Printf("  Hash       : %s\n", snap.ConfigHash[:16])
	PrintSeparator()

	if report.ImpliedVol != nil {
		fmt.Printf("  Implied vol: %.6f (%d iterations)\n", report.ImpliedVol.Vol, report.ImpliedVol.Iterations)
	} else {
		PrintError("implied vol: " + report.ImpliedVolError)
	}

	if len(report.PnL) > 0 {
		fmt.Println()
		widths := []int{10, 14, 14, 14}
		PrintTableHeader([]string{"Vol", "Auto", "Delta", "Robust"}, widths)
		for _, row := range report.PnL {
			PrintTableRow([]string{
				fmt.Sprintf("%.4f", row.Vol), fmtFloat(row.Auto), fmtFloat(row.Delta), fmtFloat(row.Robust),
			}, widths)
		}
	}

	if len(report.Skew) > 0 {
		fmt.Println()
		printSkew(report.Skew)
	}
	return nil
}

func hashScenario(cmd *cobra.Command, args []string) error {
	cfg, _, err := scenario.Load(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	hash, err := scenario.Hash(cfg)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
