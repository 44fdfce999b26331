package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/hedgevol/internal/api"
	"github.com/wonny/hedgevol/internal/api/handlers"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/scheduler"
	"github.com/wonny/hedgevol/internal/scheduler/jobs"
	"github.com/wonny/hedgevol/internal/skew"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the hedge API server",
	Long: `Loads the portfolio described by the portfolio flags and serves it over HTTP.
With a --symbol source the series is reloaded on SERIES_REFRESH_CRON.

Endpoints:
  GET  /health          - Health check
  GET  /api/portfolio   - Served portfolio parameters
  POST /api/pnl         - Hedge P&L at a volatility
  POST /api/ivol        - Implied volatility
  POST /api/skew        - Implied volatility across strikes
  GET  /api/jobs        - Scheduled jobs and their statistics
  GET  /api/jobs/{name}/history - Latest runs of a job
  POST /api/jobs/{name}/run     - Run a job now
  DELETE /api/jobs/{name}       - Unschedule a job

Example:
  go run ./cmd/hedgevol api --csv spx.csv --last-months 12
  go run ./cmd/hedgevol api --symbol SPX --last-months 12 --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	build := func(ctx context.Context) (*portfolio.Portfolio, error) {
		return ptf.build(ctx, a)
	}
	p, err := build(ctx)
	if err != nil {
		return err
	}
	store := portfolio.NewStore(p)

	sched := scheduler.New(a.log)
	// Refresh only makes sense when the prices come from the database
	if ptf.symbol != "" {
		refresh := jobs.NewSeriesRefreshJob(a.cfg.SeriesRefreshCron, build, store, a.log).
			WithEvict(func(ctx context.Context) error {
				return a.evictSeries(ctx, ptf.symbol)
			})
		if err := sched.AddJob(refresh); err != nil {
			return fmt.Errorf("schedule refresh: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	calc := skew.NewCalculator(a.cfg.SkewWorkers, a.log)
	hedgeHandler := handlers.NewHedgeHandler(store, calc, a.solverConfig(), a.log)
	jobsHandler := handlers.NewJobsHandler(sched, a.log)
	router := api.NewRouter(hedgeHandler, jobsHandler, a.cfg.APIRateLimit, a.log)
	server := api.New(a.cfg, a.log, router)

	fmt.Printf("\n✅ Serving %s on http://localhost:%s\n", p.Name(), a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/portfolio")
	fmt.Println("  POST /api/pnl")
	fmt.Println("  POST /api/ivol")
	fmt.Println("  POST /api/skew")
	fmt.Println("  GET  /api/jobs")
	fmt.Println("  GET  /api/jobs/{name}/history")
	fmt.Println("  POST /api/jobs/{name}/run")
	fmt.Println("  DELETE /api/jobs/{name}")
	if names := sched.GetAllJobs(); len(names) > 0 {
		fmt.Printf("\nScheduled jobs: %v\n", names)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
