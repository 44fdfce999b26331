package handlers

import (
	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
	"github.com/wonny/hedgevol/internal/volsolver"
)

// EvalRequest selects the option and window for one evaluation.
// Unset fields keep the served portfolio's values.
type EvalRequest struct {
	Mode string `json:"mode"` // auto, delta, robust
	Kind string `json:"kind"` // call, put

	Strike    *float64 `json:"strike,omitempty"`
	StrikePct *float64 `json:"strike_pct,omitempty"`
	Rate      *float64 `json:"rate,omitempty"`
	Dividend  *float64 `json:"dividend,omitempty"`

	Start      *int `json:"start,omitempty"`
	End        *int `json:"end,omitempty"`
	LastMonths int  `json:"last_months,omitempty"`
	AnchorNext bool `json:"anchor_next,omitempty"`
}

// PnLRequest represents a P&L request
type PnLRequest struct {
	EvalRequest
	Vol   float64 `json:"vol"`
	Trace bool    `json:"trace,omitempty"`
}

// SolverRequest overrides the solver defaults; unset fields keep the default
type SolverRequest struct {
	VLow      *float64 `json:"v_low,omitempty"`
	VHigh     *float64 `json:"v_high,omitempty"`
	Tol       *float64 `json:"tol,omitempty"`
	Precision *float64 `json:"precision,omitempty"`
	MaxIter   *int     `json:"max_iter,omitempty"`
	Policy    string   `json:"policy,omitempty"`
	Target    *float64 `json:"target,omitempty"`
}

// IVolRequest represents an implied vol request
type IVolRequest struct {
	EvalRequest
	Solver SolverRequest `json:"solver"`
}

// SkewRequest represents a strike skew request
type SkewRequest struct {
	EvalRequest
	StrikesPct []float64     `json:"strikes_pct"`
	Solver     SolverRequest `json:"solver"`
}

func (r EvalRequest) parse() (contracts.PnLMode, contracts.OptionType, error) {
	mode, err := contracts.ParsePnLMode(r.Mode)
	if err != nil {
		return "", "", err
	}
	kind := contracts.Call
	if r.Kind != "" {
		if kind, err = contracts.ParseOptionType(r.Kind); err != nil {
			return "", "", err
		}
	}
	return mode, kind, nil
}

// apply edits p in the same order as the CLI: market, window, then strike
func (r EvalRequest) apply(p *portfolio.Portfolio) error {
	if r.Rate != nil {
		if err := p.SetRate(*r.Rate); err != nil {
			return err
		}
	}
	if r.Dividend != nil {
		if err := p.SetDividend(*r.Dividend); err != nil {
			return err
		}
	}

	switch {
	case r.LastMonths > 0:
		if err := p.SetLastRange(r.LastMonths, r.AnchorNext); err != nil {
			return err
		}
	case r.Start != nil || r.End != nil:
		start, end := p.Start(), p.End()
		if r.Start != nil {
			start = *r.Start
		}
		if r.End != nil {
			end = *r.End
		}
		if err := p.SetRange(start, end); err != nil {
			return err
		}
	}

	switch {
	case r.StrikePct != nil:
		return p.SetStrike(*r.StrikePct, true)
	case r.Strike != nil:
		return p.SetStrike(*r.Strike, false)
	}
	return nil
}

func (s SolverRequest) config(base volsolver.Config) volsolver.Config {
	if s.VLow != nil {
		base.VLow = *s.VLow
	}
	if s.VHigh != nil {
		base.VHigh = *s.VHigh
	}
	if s.Tol != nil {
		base.Tol = *s.Tol
	}
	if s.Precision != nil {
		base.Precision = *s.Precision
	}
	if s.MaxIter != nil {
		base.MaxIter = *s.MaxIter
	}
	if s.Policy != "" {
		base.Policy = volsolver.StopPolicy(s.Policy)
	}
	if s.Target != nil {
		base.Target = *s.Target
	}
	return base
}
