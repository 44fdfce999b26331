// Package hedge replays a price window under an assumed volatility and
// reports the P&L of a long option hedged with a short delta position.
//
// Timeline: the window holds samples S_0..S_{n-1}. At sample i the option
// has τ_i = (n-i)/basis years left, so it expires one step after the last
// sample, at the last observed price. Every mode therefore walks n steps;
// the final step carries time decay and financing but no price move.
package hedge

import (
	"fmt"
	"math"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/pricing"
)

// DefaultBasis is the number of trading days per year
const DefaultBasis = 252.0

// Snapshot is the immutable input of one evaluation
// ⭐ SSOT: 시뮬레이션 입력은 스냅샷으로만 전달 (공유 상태 읽기 금지)
type Snapshot struct {
	Prices   []float64 `json:"prices"` // window prices, oldest first
	Strike   float64   `json:"strike"`
	Rate     float64   `json:"rate"`
	Dividend float64   `json:"dividend"`
	Basis    float64   `json:"basis"`
}

// Maturity is the option's life at the first sample, in years
func (s Snapshot) Maturity() float64 {
	return float64(len(s.Prices)) / s.Basis
}

func (s Snapshot) validate() error {
	if !(s.Basis > 0) {
		return fmt.Errorf("%w: basis must be > 0, got %v", contracts.ErrInvalidParameter, s.Basis)
	}
	for i, p := range s.Prices {
		if !(p > 0) {
			return fmt.Errorf("%w: price %d is %v", contracts.ErrInvalidParameter, i, p)
		}
	}
	return nil
}

func (s Snapshot) params(i int, vol float64) pricing.Params {
	return pricing.Params{
		Spot:     s.Prices[i],
		Strike:   s.Strike,
		Maturity: float64(len(s.Prices)-i) / s.Basis,
		Rate:     s.Rate,
		Dividend: s.Dividend,
		Vol:      vol,
	}
}

// Step is one rebalancing record, kept only when tracing
type Step struct {
	Index int     `json:"index"`
	Spot  float64 `json:"spot"`
	Tau   float64 `json:"tau"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma,omitempty"`
	Cash  float64 `json:"cash,omitempty"`
	PnL   float64 `json:"pnl"` // running total after this step
}

// Result is a P&L together with the pieces it was built from
type Result struct {
	Mode    contracts.PnLMode    `json:"mode"`
	Kind    contracts.OptionType `json:"kind"`
	Vol     float64              `json:"vol"`
	PnL     float64              `json:"pnl"`
	Premium float64              `json:"premium"`
	Payoff  float64              `json:"payoff"`
	Vega    float64              `json:"vega"` // of the premium at the first sample
	Steps   []Step               `json:"steps,omitempty"`
}

// PnL evaluates one mode. An empty window yields exactly 0.
func PnL(snap Snapshot, mode contracts.PnLMode, vol float64, kind contracts.OptionType) (float64, error) {
	res, err := Simulate(snap, mode, vol, kind, false)
	if err != nil {
		return 0, err
	}
	return res.PnL, nil
}

// Simulate evaluates one mode and, if trace is set, records every step
func Simulate(snap Snapshot, mode contracts.PnLMode, vol float64, kind contracts.OptionType, trace bool) (*Result, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(vol) || vol < 0 {
		return nil, fmt.Errorf("%w: volatility must be >= 0, got %v", contracts.ErrInvalidParameter, vol)
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}

	res := &Result{Mode: mode, Kind: kind, Vol: vol}
	if len(snap.Prices) == 0 {
		return res, nil
	}

	sim := &simulation{snap: snap, vol: vol, kind: kind, trace: trace, res: res}

	var err error
	switch mode {
	case contracts.ModeAutoFinancing:
		err = sim.autoFinancing()
	case contracts.ModeDelta:
		err = sim.deltaOnly()
	case contracts.ModeRobust:
		err = sim.robust()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

type simulation struct {
	snap  Snapshot
	vol   float64
	kind  contracts.OptionType
	trace bool
	res   *Result
}

func (s *simulation) dt() float64 { return 1 / s.snap.Basis }

func (s *simulation) record(step Step) {
	if s.trace {
		s.res.Steps = append(s.res.Steps, step)
	}
}

// open prices the option at the first sample and the payoff at expiry
func (s *simulation) open() error {
	p := s.snap.params(0, s.vol)
	premium, err := pricing.Price(s.kind, p)
	if err != nil {
		return err
	}
	vega, err := pricing.Vega(s.kind, p)
	if err != nil {
		return err
	}
	s.res.Premium = premium
	s.res.Vega = vega
	s.res.Payoff = pricing.Payoff(s.kind, s.snap.Prices[len(s.snap.Prices)-1], s.snap.Strike)
	return nil
}

// autoFinancing runs a self-financing account: the premium is borrowed,
// the short stock proceeds are lent, and every rebalance goes through cash.
func (s *simulation) autoFinancing() error {
	if err := s.open(); err != nil {
		return err
	}

	prices := s.snap.Prices
	n := len(prices)
	growth := math.Exp(s.snap.Rate * s.dt())
	divYield := math.Exp(s.snap.Dividend*s.dt()) - 1

	delta, err := pricing.Delta(s.kind, s.snap.params(0, s.vol))
	if err != nil {
		return err
	}
	cash := -s.res.Premium + delta*prices[0]

	for i := 0; i < n; i++ {
		spot := prices[i]

		// carry over the step
		cash *= growth
		cash -= delta * spot * divYield

		if i+1 < n {
			next, err := pricing.Delta(s.kind, s.snap.params(i+1, s.vol))
			if err != nil {
				return err
			}
			cash += (next - delta) * prices[i+1]
			delta = next
		}

		s.record(Step{
			Index: i,
			Spot:  spot,
			Tau:   s.snap.params(i, s.vol).Maturity,
			Delta: delta,
			Cash:  cash,
			PnL:   cash - delta*prices[min(i+1, n-1)],
		})
	}

	last := prices[n-1]
	s.res.PnL = s.res.Payoff + cash - delta*last
	return nil
}

// deltaOnly compares the option's value change with the delta leg alone
func (s *simulation) deltaOnly() error {
	if err := s.open(); err != nil {
		return err
	}

	prices := s.snap.Prices
	hedge := 0.0
	for i := 0; i+1 < len(prices); i++ {
		delta, err := pricing.Delta(s.kind, s.snap.params(i, s.vol))
		if err != nil {
			return err
		}
		hedge += delta * (prices[i+1] - prices[i])

		s.record(Step{
			Index: i,
			Spot:  prices[i],
			Tau:   s.snap.params(i, s.vol).Maturity,
			Delta: delta,
			PnL:   -hedge,
		})
	}

	s.res.PnL = s.res.Payoff - s.res.Premium - hedge
	return nil
}

// robust sums ½·γ·S²·(R − σ²·dt) with γ taken at the start of each step
// and R the squared simple return over the step (0 on the expiry step).
func (s *simulation) robust() error {
	if err := s.open(); err != nil {
		return err
	}

	prices := s.snap.Prices
	implied := s.vol * s.vol * s.dt()
	total := 0.0

	for i := range prices {
		spot := prices[i]
		p := s.snap.params(i, s.vol)

		gamma, err := pricing.Gamma(s.kind, p)
		if err != nil {
			return err
		}

		realized := 0.0
		if i+1 < len(prices) {
			ret := (prices[i+1] - spot) / spot
			realized = ret * ret
		}
		total += 0.5 * gamma * spot * spot * (realized - implied)

		s.record(Step{Index: i, Spot: spot, Tau: p.Maturity, Gamma: gamma, PnL: total})
	}

	s.res.PnL = total
	return nil
}
