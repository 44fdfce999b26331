package scenario

import (
	"context"
	"fmt"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/series"
	"github.com/wonny/hedgevol/internal/skew"
	"github.com/wonny/hedgevol/internal/volsolver"
	"github.com/wonny/hedgevol/pkg/logger"
)

// PnLRow is the P&L of every mode at one volatility
type PnLRow struct {
	Vol    float64 `json:"vol"`
	Auto   float64 `json:"auto"`
	Delta  float64 `json:"delta"`
	Robust float64 `json:"robust"`
}

// Report is the outcome of one scenario run
type Report struct {
	Snapshot        *RunSnapshot         `json:"snapshot,omitempty"`
	Info            portfolio.Info       `json:"info"`
	Mode            contracts.PnLMode    `json:"mode"`
	Kind            contracts.OptionType `json:"kind"`
	ImpliedVol      *volsolver.Result    `json:"implied_vol,omitempty"`
	ImpliedVolError string               `json:"implied_vol_error,omitempty"`
	PnL             []PnLRow             `json:"pnl,omitempty"`
	Skew            []skew.Point         `json:"skew,omitempty"`
}

// Runner evaluates scenarios. repo may be nil when only CSV sources are used.
type Runner struct {
	repo   contracts.SeriesRepository
	calc   *skew.Calculator
	logger *logger.Logger
}

// NewRunner creates a scenario runner
func NewRunner(repo contracts.SeriesRepository, calc *skew.Calculator, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{repo: repo, calc: calc, logger: log}
}

// Build loads the series and configures a portfolio as the scenario describes
func (r *Runner) Build(ctx context.Context, cfg *Config) (*portfolio.Portfolio, error) {
	src, err := seriesSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	s, err := series.Open(ctx, src, r.repo)
	if err != nil {
		return nil, err
	}

	// strike is set after the window so that strike_pct uses the new start
	p, err := portfolio.New(cfg.Meta.Name, s, 1, cfg.Market.Rate, cfg.Market.Dividend)
	if err != nil {
		return nil, err
	}
	p.WithLogger(r.logger)

	if cfg.Market.Basis > 0 {
		if err := p.SetBasis(cfg.Market.Basis); err != nil {
			return nil, err
		}
	}

	switch {
	case cfg.Window.LastMonths > 0:
		if err := p.SetLastRange(cfg.Window.LastMonths, cfg.Window.AnchorNext); err != nil {
			return nil, fmt.Errorf("window: %w", err)
		}
	case cfg.Window.Start != nil || cfg.Window.End != nil:
		start, end := 0, s.Len()
		if cfg.Window.Start != nil {
			start = *cfg.Window.Start
		}
		if cfg.Window.End != nil {
			end = *cfg.Window.End
		}
		if err := p.SetRange(start, end); err != nil {
			return nil, fmt.Errorf("window: %w", err)
		}
	}

	if cfg.Option.StrikePct != nil {
		err = p.SetStrike(*cfg.Option.StrikePct, true)
	} else {
		err = p.SetStrike(*cfg.Option.Strike, false)
	}
	if err != nil {
		return nil, fmt.Errorf("option: %w", err)
	}

	return p, nil
}

// Run builds the portfolio and computes the implied vol, the P&L table and the skew.
// A solver failure is reported in the Report rather than failing the run.
func (r *Runner) Run(ctx context.Context, cfg *Config) (*Report, error) {
	p, err := r.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	kind, _ := contracts.ParseOptionType(cfg.Option.Kind)
	mode, _ := contracts.ParsePnLMode(cfg.Option.Mode)
	solver := SolverFrom(cfg.Solver, volsolver.DefaultConfig())

	report := &Report{Info: p.Info(), Mode: mode, Kind: kind}

	res, err := p.ImpliedVol(mode, kind, solver)
	if err != nil {
		report.ImpliedVolError = err.Error()
	} else {
		report.ImpliedVol = &res
	}

	for _, vol := range cfg.PnL.Vols {
		row := PnLRow{Vol: vol}
		for _, m := range []struct {
			mode contracts.PnLMode
			dst  *float64
		}{
			{contracts.ModeAutoFinancing, &row.Auto},
			{contracts.ModeDelta, &row.Delta},
			{contracts.ModeRobust, &row.Robust},
		} {
			v, err := p.PnL(m.mode, vol, kind)
			if err != nil {
				return nil, err
			}
			*m.dst = v
		}
		report.PnL = append(report.PnL, row)
	}

	if len(cfg.Skew.StrikesPct) > 0 && r.calc != nil {
		points, err := r.calc.Compute(ctx, p, skew.Request{
			Strikes: cfg.Skew.StrikesPct,
			Mode:    mode,
			Kind:    kind,
			Solver:  solver,
		})
		if err != nil {
			return nil, err
		}
		report.Skew = points
	}

	r.logger.WithFields(map[string]interface{}{
		"scenario": cfg.Meta.Name,
		"start":    p.Start(),
		"end":      p.End(),
		"solved":   report.ImpliedVol != nil,
	}).Info("Scenario completed")

	return report, nil
}

func seriesSource(s Source) (series.Source, error) {
	from, err := parseDate(s.From)
	if err != nil {
		return series.Source{}, ValidationError{"source.from", err.Error()}
	}
	to, err := parseDate(s.To)
	if err != nil {
		return series.Source{}, ValidationError{"source.to", err.Error()}
	}
	return series.Source{Path: s.Path, Symbol: s.Symbol, From: from, To: to}, nil
}
