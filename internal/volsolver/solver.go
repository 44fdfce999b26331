// Package volsolver finds the volatility at which a hedge P&L function
// reaches a target value, by bracketed bisection.
package volsolver

import (
	"fmt"
	"math"

	"github.com/wonny/hedgevol/internal/contracts"
)

// StopPolicy decides when the bisection loop may stop
type StopPolicy string

const (
	// WidthOrValue stops when the bracket is narrower than Tol or |f(mid)| < Precision
	WidthOrValue StopPolicy = "width_or_value"
	// ValueOnly stops only on |f(mid)| < Precision
	ValueOnly StopPolicy = "value_only"
)

// ParseStopPolicy accepts the policy names plus "" for the default
func ParseStopPolicy(s string) (StopPolicy, error) {
	switch StopPolicy(s) {
	case "", WidthOrValue:
		return WidthOrValue, nil
	case ValueOnly, "legacy":
		return ValueOnly, nil
	}
	return "", fmt.Errorf("%w: unknown stop policy %q", contracts.ErrInvalidParameter, s)
}

// Config is the search bracket and stop rule
type Config struct {
	Tol       float64    `json:"tol" yaml:"tol"`
	Precision float64    `json:"precision" yaml:"precision"`
	VLow      float64    `json:"v_low" yaml:"v_low"`
	VHigh     float64    `json:"v_high" yaml:"v_high"`
	MaxIter   int        `json:"max_iter" yaml:"max_iter"`
	Policy    StopPolicy `json:"policy" yaml:"policy"`
	Target    float64    `json:"target" yaml:"target"`
}

// DefaultConfig returns the default bracket [1e-4, 1]
func DefaultConfig() Config {
	return Config{
		Tol:       1e-13,
		Precision: 1e-5,
		VLow:      1e-4,
		VHigh:     1.0,
		MaxIter:   200,
		Policy:    WidthOrValue,
	}
}

// Validate checks the bracket and tolerances
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.VLow) || math.IsNaN(c.VHigh) || c.VLow < 0 || c.VLow >= c.VHigh:
		return fmt.Errorf("%w: bracket must satisfy 0 <= v_low < v_high, got [%v, %v]",
			contracts.ErrInvalidParameter, c.VLow, c.VHigh)
	case !(c.Tol > 0) || !(c.Precision > 0):
		return fmt.Errorf("%w: tol and precision must be > 0", contracts.ErrInvalidParameter)
	case c.MaxIter <= 0:
		return fmt.Errorf("%w: max_iter must be > 0", contracts.ErrInvalidParameter)
	case math.IsNaN(c.Target) || math.IsInf(c.Target, 0):
		return fmt.Errorf("%w: target must be finite", contracts.ErrInvalidParameter)
	}
	if _, err := ParseStopPolicy(string(c.Policy)); err != nil {
		return err
	}
	return nil
}

// Result of a successful search
type Result struct {
	Vol        float64 `json:"vol"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"` // f(Vol) - Target
}

// Func is the objective, typically a hedge P&L at fixed portfolio and mode
type Func func(vol float64) (float64, error)

// Solve bisects f - cfg.Target on [cfg.VLow, cfg.VHigh].
// An end where f is exactly 0 is not taken as the root; the search starts
// from the nearest interior grid point where f is nonzero instead.
// It fails with ErrNoBracket when the endpoints share a sign and with
// ErrNonConvergence when MaxIter midpoints did not satisfy the stop rule.
func Solve(f Func, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	policy, _ := ParseStopPolicy(string(cfg.Policy))

	eval := func(v float64) (float64, error) {
		y, err := f(v)
		if err != nil {
			return 0, fmt.Errorf("evaluate at vol %g: %w", v, err)
		}
		if math.IsNaN(y) {
			return 0, fmt.Errorf("%w: objective is NaN at vol %g", contracts.ErrInvalidParameter, v)
		}
		return y - cfg.Target, nil
	}

	lo, hi := cfg.VLow, cfg.VHigh
	fLo, err := eval(lo)
	if err != nil {
		return Result{}, err
	}
	fHi, err := eval(hi)
	if err != nil {
		return Result{}, err
	}

	// An exact 0 at an end is the flat region where delta and gamma underflow,
	// not a root: move the end inward until f has a sign.
	if fLo == 0 || fHi == 0 {
		lo, fLo, hi, fHi, err = leavePlateau(eval, lo, fLo, hi, fHi)
		if err != nil {
			return Result{}, err
		}
	}
	if math.Signbit(fLo) == math.Signbit(fHi) {
		return Result{}, fmt.Errorf("%w: f(%g)=%g and f(%g)=%g have the same sign",
			contracts.ErrNoBracket, lo, fLo, hi, fHi)
	}

	for i := 1; i <= cfg.MaxIter; i++ {
		mid := lo + (hi-lo)/2
		fMid, err := eval(mid)
		if err != nil {
			return Result{}, err
		}

		if fMid == 0 || math.Abs(fMid) < cfg.Precision {
			return Result{Vol: mid, Iterations: i, Residual: fMid}, nil
		}
		if policy == WidthOrValue && (hi-lo)/2 < cfg.Tol {
			return Result{Vol: mid, Iterations: i, Residual: fMid}, nil
		}

		if math.Signbit(fMid) == math.Signbit(fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}

	return Result{}, fmt.Errorf("%w: %d iterations, bracket [%g, %g]",
		contracts.ErrNonConvergence, cfg.MaxIter, lo, hi)
}

// plateauSteps is the grid used to step an end off a zero plateau
const plateauSteps = 64

// leavePlateau replaces an end where f is exactly 0 with the nearest grid
// point inside [lo, hi] where it is not. ErrNoBracket if f is 0 throughout.
func leavePlateau(eval func(float64) (float64, error), lo, fLo, hi, fHi float64) (float64, float64, float64, float64, error) {
	width := hi - lo
	first, last := 0, plateauSteps

	if fLo == 0 {
		for first = 1; first < plateauSteps; first++ {
			v := lo + width*float64(first)/plateauSteps
			y, err := eval(v)
			if err != nil {
				return 0, 0, 0, 0, err
			}
			if y != 0 {
				lo, fLo = v, y
				break
			}
		}
		if fLo == 0 {
			return 0, 0, 0, 0, fmt.Errorf("%w: f is 0 on [%g, %g]", contracts.ErrNoBracket, lo, hi)
		}
	}

	if fHi == 0 {
		base := hi - width
		for last = plateauSteps - 1; last > first; last-- {
			v := base + width*float64(last)/plateauSteps
			y, err := eval(v)
			if err != nil {
				return 0, 0, 0, 0, err
			}
			if y != 0 {
				hi, fHi = v, y
				break
			}
		}
		if fHi == 0 {
			return 0, 0, 0, 0, fmt.Errorf("%w: f is 0 on [%g, %g]", contracts.ErrNoBracket, lo, hi)
		}
	}

	return lo, fLo, hi, fHi, nil
}

// SignChanges samples f - target on n+1 evenly spaced points of [lo, hi] and
// counts strict sign changes. Exactly one means the bracket holds a single root
// at this resolution; more means bisection may land on any of them.
func SignChanges(f Func, lo, hi, target float64, n int) (int, error) {
	if n <= 0 || !(lo < hi) {
		return 0, fmt.Errorf("%w: need n > 0 and lo < hi", contracts.ErrInvalidParameter)
	}

	changes := 0
	prev := 0.0
	for i := 0; i <= n; i++ {
		v := lo + (hi-lo)*float64(i)/float64(n)
		y, err := f(v)
		if err != nil {
			return 0, fmt.Errorf("evaluate at vol %g: %w", v, err)
		}
		y -= target
		if y == 0 {
			continue
		}
		if prev != 0 && math.Signbit(prev) != math.Signbit(y) {
			changes++
		}
		prev = y
	}
	return changes, nil
}
