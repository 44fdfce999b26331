// Package portfolio binds a price series, an option strike and market
// parameters to an active window, and answers P&L and implied-vol queries
// for that window.
package portfolio

import (
	"fmt"
	"math"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/hedge"
	"github.com/wonny/hedgevol/internal/series"
	"github.com/wonny/hedgevol/internal/volsolver"
	"github.com/wonny/hedgevol/pkg/logger"
)

// Portfolio is a hedged option position over a window [start, end) of a series.
// It is not safe for concurrent mutation; use Clone for per-goroutine state.
// ⭐ SSOT: 0 <= start <= end <= series.Len() 불변식은 여기서만 검증
type Portfolio struct {
	name     string
	series   *series.Series
	strike   float64
	rate     float64
	dividend float64
	basis    float64
	start    int
	end      int

	logger *logger.Logger
}

// New creates a portfolio over the full series
func New(name string, s *series.Series, strike, rate, dividend float64) (*Portfolio, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: series is nil", contracts.ErrInvalidParameter)
	}
	if err := checkStrike(strike); err != nil {
		return nil, err
	}
	if err := checkFinite("rate", rate); err != nil {
		return nil, err
	}
	if err := checkFinite("dividend", dividend); err != nil {
		return nil, err
	}

	return &Portfolio{
		name:     name,
		series:   s,
		strike:   strike,
		rate:     rate,
		dividend: dividend,
		basis:    hedge.DefaultBasis,
		start:    0,
		end:      s.Len(),
		logger:   logger.Nop(),
	}, nil
}

// WithLogger sets the logger used for solver diagnostics
func (p *Portfolio) WithLogger(log *logger.Logger) *Portfolio {
	if log != nil {
		p.logger = log.WithField("portfolio", p.name)
	}
	return p
}

// Clone returns an independent copy sharing the immutable series
func (p *Portfolio) Clone() *Portfolio {
	c := *p
	return &c
}

// Getters

func (p *Portfolio) Name() string           { return p.name }
func (p *Portfolio) Series() *series.Series { return p.series }
func (p *Portfolio) Size() int              { return p.series.Len() }
func (p *Portfolio) RangeSize() int         { return p.end - p.start }
func (p *Portfolio) Strike() float64        { return p.strike }
func (p *Portfolio) Rate() float64          { return p.rate }
func (p *Portfolio) Dividend() float64      { return p.dividend }
func (p *Portfolio) Basis() float64         { return p.basis }
func (p *Portfolio) Start() int             { return p.start }
func (p *Portfolio) End() int               { return p.end }

// Spot is the price at start, or 0 when start is one past the last sample
func (p *Portfolio) Spot() float64 {
	if p.start >= p.series.Len() {
		return 0
	}
	return p.series.Price(p.start)
}

// Maturity is the window length in years
func (p *Portfolio) Maturity() float64 {
	return float64(p.RangeSize()) / p.basis
}

// Setters. Each validates first and leaves the portfolio untouched on error.

func (p *Portfolio) SetName(name string) {
	p.name = name
	p.logger = p.logger.WithField("portfolio", name)
}

func (p *Portfolio) SetRate(rate float64) error {
	if err := checkFinite("rate", rate); err != nil {
		return err
	}
	p.rate = rate
	return nil
}

func (p *Portfolio) SetDividend(dividend float64) error {
	if err := checkFinite("dividend", dividend); err != nil {
		return err
	}
	p.dividend = dividend
	return nil
}

// SetBasis sets the number of trading days per year
func (p *Portfolio) SetBasis(basis float64) error {
	if math.IsNaN(basis) || math.IsInf(basis, 0) || basis <= 0 {
		return fmt.Errorf("%w: basis must be > 0, got %v", contracts.ErrInvalidParameter, basis)
	}
	p.basis = basis
	return nil
}

// SetStrike sets the strike level. With asPercentage, value is a percentage
// of the price at start (100 = at the money) and the absolute level is stored.
func (p *Portfolio) SetStrike(value float64, asPercentage bool) error {
	strike := value
	if asPercentage {
		if p.start >= p.series.Len() {
			return fmt.Errorf("%w: no price at start %d for a percentage strike", contracts.ErrRange, p.start)
		}
		strike = value / 100 * p.series.Price(p.start)
	}
	if err := checkStrike(strike); err != nil {
		return err
	}
	p.strike = strike
	return nil
}

func (p *Portfolio) SetStart(start int) error {
	return p.SetRange(start, p.end)
}

func (p *Portfolio) SetEnd(end int) error {
	return p.SetRange(p.start, end)
}

// SetRange sets both window bounds at once
func (p *Portfolio) SetRange(start, end int) error {
	if err := p.series.CheckRange(start, end); err != nil {
		return err
	}
	p.start, p.end = start, end
	return nil
}

// SetLastRange moves start to months calendar months before the anchor.
// The anchor is end, or the position after end when anchorNext is set and
// end is not already past the last sample; end is moved to the anchor.
func (p *Portfolio) SetLastRange(months int, anchorNext bool) error {
	if months < 0 {
		return fmt.Errorf("%w: months must be >= 0, got %d", contracts.ErrInvalidParameter, months)
	}

	anchor := p.end
	if anchorNext && anchor < p.series.Len() {
		anchor++
	}

	start, err := p.series.ShiftMonths(anchor, -months)
	if err != nil {
		return err
	}
	return p.SetRange(min(start, anchor), anchor)
}

// Snapshot captures the current window and parameters for one evaluation
func (p *Portfolio) Snapshot() hedge.Snapshot {
	// bounds are kept valid by the setters
	prices, _ := p.series.Prices(p.start, p.end)
	return hedge.Snapshot{
		Prices:   prices,
		Strike:   p.strike,
		Rate:     p.rate,
		Dividend: p.dividend,
		Basis:    p.basis,
	}
}

// PnL returns the hedge P&L of the window at volatility vol
func (p *Portfolio) PnL(mode contracts.PnLMode, vol float64, kind contracts.OptionType) (float64, error) {
	v, err := hedge.PnL(p.Snapshot(), mode, vol, kind)
	if err != nil {
		return 0, fmt.Errorf("portfolio %q: %w", p.name, err)
	}
	return v, nil
}

// Simulate is PnL with the per-step trace
func (p *Portfolio) Simulate(mode contracts.PnLMode, vol float64, kind contracts.OptionType) (*hedge.Result, error) {
	res, err := hedge.Simulate(p.Snapshot(), mode, vol, kind, true)
	if err != nil {
		return nil, fmt.Errorf("portfolio %q: %w", p.name, err)
	}
	return res, nil
}

// ImpliedVol solves for the volatility at which the P&L equals cfg.Target
func (p *Portfolio) ImpliedVol(mode contracts.PnLMode, kind contracts.OptionType, cfg volsolver.Config) (volsolver.Result, error) {
	snap := p.Snapshot()
	f := func(vol float64) (float64, error) {
		return hedge.PnL(snap, mode, vol, kind)
	}

	res, err := volsolver.Solve(f, cfg)
	if err != nil {
		p.logger.WithFields(map[string]interface{}{
			"mode":   string(mode),
			"kind":   string(kind),
			"strike": p.strike,
		}).WithError(err).Debug("implied vol failed")
		return volsolver.Result{}, fmt.Errorf("portfolio %q: %w", p.name, err)
	}

	p.logger.WithFields(map[string]interface{}{
		"mode":       string(mode),
		"kind":       string(kind),
		"strike":     p.strike,
		"vol":        res.Vol,
		"iterations": res.Iterations,
	}).Debug("implied vol solved")

	return res, nil
}

func checkStrike(strike float64) error {
	if math.IsNaN(strike) || math.IsInf(strike, 0) || strike <= 0 {
		return fmt.Errorf("%w: strike must be > 0, got %v", contracts.ErrInvalidParameter, strike)
	}
	return nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", contracts.ErrInvalidParameter, field, v)
	}
	return nil
}
