package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/series"
)

// seriesCmd represents the series command
var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Manage stored price series",
	Long: `Imports price CSV files into the daily_prices table and inspects loaded series.

Subcommands:
  import  - load a CSV file into the database (needs DATABASE_URL)
  show    - print the first and last samples of a series

Example:
  go run ./cmd/hedgevol series import spx.csv --as SPX
  go run ./cmd/hedgevol series show --symbol SPX --from 2020-01-01`,
}

var (
	seriesImportCmd = &cobra.Command{
		Use:   "import [csv]",
		Short: "Import a CSV file into the database",
		Args:  cobra.ExactArgs(1),
		RunE:  importSeries,
	}

	seriesShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the head and tail of a series",
		RunE:  showSeries,
	}

	importSymbol string
	showRows     int
)

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesCmd.AddCommand(seriesImportCmd)
	seriesCmd.AddCommand(seriesShowCmd)

	seriesImportCmd.Flags().StringVar(&importSymbol, "as", "", "symbol to store the prices under (required)")
	_ = seriesImportCmd.MarkFlagRequired("as")
	seriesShowCmd.Flags().IntVar(&showRows, "rows", 5, "samples to print at each end")
}

func importSeries(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := series.LoadCSV(args[0])
	if err != nil {
		return err
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db == nil {
		return errors.New("series import needs DATABASE_URL")
	}

	repo := series.NewPostgresRepository(a.db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	var writer contracts.SeriesWriter = repo

	samples := make([]contracts.Sample, s.Len())
	for i := range samples {
		samples[i] = contracts.Sample{Date: s.Date(i), Price: s.Price(i)}
	}
	if err := writer.SaveBatch(ctx, importSymbol, samples); err != nil {
		return fmt.Errorf("save %s: %w", importSymbol, err)
	}
	if err := a.evictSeries(ctx, importSymbol); err != nil {
		a.log.WithError(err).Warn("series cache not cleared, stale windows expire with REDIS_SERIES_TTL")
	}

	a.log.WithFields(map[string]interface{}{
		"symbol":  importSymbol,
		"samples": len(samples),
	}).Info("Series imported")
	PrintSuccess(fmt.Sprintf("%d samples imported as %s (%s ~ %s)",
		len(samples), importSymbol,
		s.Date(0).Format(series.DateLayout), s.Date(s.Len()-1).Format(series.DateLayout)))
	return nil
}

func showSeries(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, err := ptf.source()
	if err != nil {
		return err
	}

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := series.Open(ctx, src, a.repository())
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d samples\n", s.Name(), s.Len())
	widths := []int{6, 12, 14}
	PrintTableHeader([]string{"Index", "Date", "Price"}, widths)
	for i := 0; i < s.Len(); i++ {
		if showRows > 0 && i == showRows && s.Len() > 2*showRows {
			fmt.Println("...")
			i = s.Len() - showRows
		}
		PrintTableRow([]string{fmt.Sprint(i), s.Date(i).Format(series.DateLayout), fmtFloat(s.Price(i))}, widths)
	}
	return nil
}
