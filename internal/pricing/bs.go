// Package pricing provides stateless Black-Scholes valuation under a
// continuous dividend yield. Every function is safe for concurrent use.
package pricing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wonny/hedgevol/internal/contracts"
)

// Params are the market inputs of a single valuation.
//
// Maturity is in years. Rate and Dividend are continuously compounded
// yields and may be zero or negative. Vol is annualized.
type Params struct {
	Spot     float64
	Strike   float64
	Maturity float64
	Rate     float64
	Dividend float64
	Vol      float64
}

// validate rejects inputs the formulas cannot give a meaning to.
// Non-positive maturity and zero volatility are handled as limits, not errors.
func (p Params) validate(kind contracts.OptionType) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if math.IsNaN(p.Spot) || p.Spot <= 0 {
		return fmt.Errorf("%w: spot must be > 0, got %v", contracts.ErrInvalidParameter, p.Spot)
	}
	if math.IsNaN(p.Strike) || p.Strike <= 0 {
		return fmt.Errorf("%w: strike must be > 0, got %v", contracts.ErrInvalidParameter, p.Strike)
	}
	if math.IsNaN(p.Vol) || p.Vol < 0 {
		return fmt.Errorf("%w: volatility must be >= 0, got %v", contracts.ErrInvalidParameter, p.Vol)
	}
	if math.IsNaN(p.Maturity) || math.IsNaN(p.Rate) || math.IsNaN(p.Dividend) {
		return fmt.Errorf("%w: NaN market parameter", contracts.ErrInvalidParameter)
	}
	return nil
}

// discounted returns S·e^{-qT} and K·e^{-rT}
func (p Params) discounted() (float64, float64) {
	return p.Spot * math.Exp(-p.Dividend*p.Maturity), p.Strike * math.Exp(-p.Rate*p.Maturity)
}

func (p Params) d1d2() (float64, float64) {
	volSqrtT := p.Vol * math.Sqrt(p.Maturity)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate-p.Dividend+0.5*p.Vol*p.Vol)*p.Maturity) / volSqrtT
	return d1, d1 - volSqrtT
}

// Price returns the Black-Scholes value of a European option.
//
// Maturity <= 0 gives the intrinsic payoff. Vol == 0 gives the discounted
// deterministic forward payoff.
func Price(kind contracts.OptionType, p Params) (float64, error) {
	if err := p.validate(kind); err != nil {
		return 0, err
	}

	if p.Maturity <= 0 {
		return Payoff(kind, p.Spot, p.Strike), nil
	}

	fwdSpot, pvStrike := p.discounted()
	if p.Vol == 0 {
		return math.Max(kind.Sign()*(fwdSpot-pvStrike), 0), nil
	}

	d1, d2 := p.d1d2()
	if kind == contracts.Call {
		return fwdSpot*normCDF(d1) - pvStrike*normCDF(d2), nil
	}
	return pvStrike*normCDF(-d2) - fwdSpot*normCDF(-d1), nil
}

// Delta returns ∂Price/∂Spot.
//
// Maturity <= 0 gives the step function of the payoff, and Vol == 0 the
// deterministic indicator scaled by e^{-qT}.
func Delta(kind contracts.OptionType, p Params) (float64, error) {
	if err := p.validate(kind); err != nil {
		return 0, err
	}

	if p.Maturity <= 0 {
		if kind == contracts.Call && p.Spot > p.Strike {
			return 1, nil
		}
		if kind == contracts.Put && p.Spot < p.Strike {
			return -1, nil
		}
		return 0, nil
	}

	fwdSpot, pvStrike := p.discounted()
	growth := math.Exp(-p.Dividend * p.Maturity)
	if p.Vol == 0 {
		if kind == contracts.Call && fwdSpot > pvStrike {
			return growth, nil
		}
		if kind == contracts.Put && fwdSpot < pvStrike {
			return -growth, nil
		}
		return 0, nil
	}

	d1, _ := p.d1d2()
	if kind == contracts.Call {
		return growth * normCDF(d1), nil
	}
	return growth * (normCDF(d1) - 1), nil
}

// Gamma returns ∂²Price/∂Spot², identical for calls and puts.
// It is 0 at both degenerate limits.
func Gamma(kind contracts.OptionType, p Params) (float64, error) {
	if err := p.validate(kind); err != nil {
		return 0, err
	}
	if p.Maturity <= 0 || p.Vol == 0 {
		return 0, nil
	}

	d1, _ := p.d1d2()
	return math.Exp(-p.Dividend*p.Maturity) * normPDF(d1) / (p.Spot * p.Vol * math.Sqrt(p.Maturity)), nil
}

// Vega returns ∂Price/∂Vol per unit of volatility (not per percent).
func Vega(kind contracts.OptionType, p Params) (float64, error) {
	if err := p.validate(kind); err != nil {
		return 0, err
	}
	if p.Maturity <= 0 || p.Vol == 0 {
		return 0, nil
	}

	d1, _ := p.d1d2()
	return p.Spot * math.Exp(-p.Dividend*p.Maturity) * normPDF(d1) * math.Sqrt(p.Maturity), nil
}

// Payoff is the value at expiry: max(S-K, 0) for a call, max(K-S, 0) for a put
func Payoff(kind contracts.OptionType, spot, strike float64) float64 {
	return math.Max(kind.Sign()*(spot-strike), 0)
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
