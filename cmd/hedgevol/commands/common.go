package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/series"
	"github.com/wonny/hedgevol/internal/volsolver"
	"github.com/wonny/hedgevol/pkg/config"
	"github.com/wonny/hedgevol/pkg/database"
	"github.com/wonny/hedgevol/pkg/logger"
	"github.com/wonny/hedgevol/pkg/redis"
)

// app bundles the ambient dependencies of one command invocation
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB  // nil without DATABASE_URL
	redis *redis.Client // disabled unless REDIS_ENABLED

	cached *series.CachedRepository
}

// setup loads config, logger and the optional database and cache
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}

	db, err := database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		a.log.Debug("DATABASE_URL not set, CSV sources only")
	case err != nil:
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.db = db
	}

	rdb, err := redis.New(ctx, cfg)
	if err != nil {
		a.log.WithError(err).Warn("Redis unavailable, series cache disabled")
		rdb, _ = redis.New(ctx, &config.Config{})
	}
	a.redis = rdb

	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// repository returns the cached Postgres series repository, or nil
func (a *app) repository() contracts.SeriesRepository {
	if a.db == nil {
		return nil
	}
	return a.cachedRepository()
}

func (a *app) cachedRepository() *series.CachedRepository {
	if a.cached == nil {
		pg := series.NewPostgresRepository(a.db.Pool)
		cache := redis.NewCache(a.redis, "hedgevol")
		a.cached = series.NewCachedRepository(pg, cache, a.cfg.Redis.TTL, a.log)
	}
	return a.cached
}

// evictSeries drops the cached windows of symbol. No-op without a database.
func (a *app) evictSeries(ctx context.Context, symbol string) error {
	if a.db == nil {
		return nil
	}
	return a.cachedRepository().Evict(ctx, symbol)
}

// solverConfig returns the configured solver defaults
func (a *app) solverConfig() volsolver.Config {
	return volsolver.Config{
		Tol:       a.cfg.Solver.Tol,
		Precision: a.cfg.Solver.Precision,
		VLow:      a.cfg.Solver.VLow,
		VHigh:     a.cfg.Solver.VHigh,
		MaxIter:   a.cfg.Solver.MaxIter,
		Policy:    volsolver.WidthOrValue,
	}
}

// portfolioFlags select the series, window and option of a portfolio
type portfolioFlags struct {
	csv    string
	symbol string
	from   string
	to     string
	name   string

	strike    float64
	strikePct float64
	rate      float64
	dividend  float64
	basis     float64

	lastMonths int
	anchorNext bool
	start      int
	end        int

	kind string
	mode string

	cmd *cobra.Command
}

func (f *portfolioFlags) register(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&f.csv, "csv", "", "price CSV file (date,price)")
	fs.StringVar(&f.symbol, "symbol", "", "symbol in data.daily_prices (needs DATABASE_URL)")
	fs.StringVar(&f.from, "from", "", "first date of the series, inclusive (YYYY-MM-DD)")
	fs.StringVar(&f.to, "to", "", "last date of the series, inclusive (YYYY-MM-DD)")
	fs.StringVar(&f.name, "name", "", "portfolio name (default: series name)")

	fs.Float64Var(&f.strike, "strike", 0, "absolute strike (default HEDGE_STRIKE)")
	fs.Float64Var(&f.strikePct, "strike-pct", 0, "strike in percent of the price at start")
	fs.Float64Var(&f.rate, "rate", 0, "risk-free rate (default HEDGE_RATE)")
	fs.Float64Var(&f.dividend, "dividend", 0, "dividend yield (default HEDGE_DIVIDEND)")
	fs.Float64Var(&f.basis, "basis", 0, "trading days per year (default HEDGE_BASIS)")

	fs.IntVar(&f.lastMonths, "last-months", 0, "window = last N months before end")
	fs.BoolVar(&f.anchorNext, "anchor-next", false, "with --last-months, anchor one sample after end")
	fs.IntVar(&f.start, "start", 0, "window start index")
	fs.IntVar(&f.end, "end", -1, "window end index, exclusive (default: series length)")

	fs.StringVar(&f.kind, "kind", "call", "option type: call|put")
	fs.StringVar(&f.mode, "mode", "auto", "pnl mode: auto|delta|robust")

	f.cmd = cmd
}

func (f *portfolioFlags) changed(name string) bool {
	return f.cmd.PersistentFlags().Changed(name)
}

func (f *portfolioFlags) parse() (contracts.PnLMode, contracts.OptionType, error) {
	mode, err := contracts.ParsePnLMode(f.mode)
	if err != nil {
		return "", "", err
	}
	kind, err := contracts.ParseOptionType(f.kind)
	if err != nil {
		return "", "", err
	}
	return mode, kind, nil
}

func (f *portfolioFlags) source() (series.Source, error) {
	src := series.Source{Path: f.csv, Symbol: f.symbol}
	var err error
	if f.from != "" {
		if src.From, err = time.Parse(series.DateLayout, f.from); err != nil {
			return src, fmt.Errorf("--from: %w", err)
		}
	}
	if f.to != "" {
		if src.To, err = time.Parse(series.DateLayout, f.to); err != nil {
			return src, fmt.Errorf("--to: %w", err)
		}
	}
	return src, nil
}

// build loads the series and configures the portfolio: market, window, then strike
func (f *portfolioFlags) build(ctx context.Context, a *app) (*portfolio.Portfolio, error) {
	src, err := f.source()
	if err != nil {
		return nil, err
	}
	s, err := series.Open(ctx, src, a.repository())
	if err != nil {
		return nil, err
	}

	rate, dividend, basis := a.cfg.Hedge.Rate, a.cfg.Hedge.Dividend, a.cfg.Hedge.Basis
	if f.changed("rate") {
		rate = f.rate
	}
	if f.changed("dividend") {
		dividend = f.dividend
	}
	if f.changed("basis") {
		basis = f.basis
	}

	name := f.name
	if name == "" {
		name = s.Name()
	}

	p, err := portfolio.New(name, s, a.cfg.Hedge.Strike, rate, dividend)
	if err != nil {
		return nil, err
	}
	p.WithLogger(a.log)
	if err := p.SetBasis(basis); err != nil {
		return nil, err
	}

	end := s.Len()
	if f.changed("end") {
		end = f.end
	}
	if err := p.SetRange(f.start, end); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	if f.lastMonths > 0 {
		if err := p.SetLastRange(f.lastMonths, f.anchorNext); err != nil {
			return nil, fmt.Errorf("window: %w", err)
		}
	}

	switch {
	case f.changed("strike-pct"):
		err = p.SetStrike(f.strikePct, true)
	case f.changed("strike"):
		err = p.SetStrike(f.strike, false)
	}
	if err != nil {
		return nil, fmt.Errorf("strike: %w", err)
	}

	return p, nil
}
