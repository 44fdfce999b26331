package scenario

import (
	"fmt"
	"math"
	"time"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/series"
	"github.com/wonny/hedgevol/internal/volsolver"
)

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.Name == "" {
		return ValidationError{"meta.name", "required"}
	}

	// === Source ===
	if (cfg.Source.Path == "") == (cfg.Source.Symbol == "") {
		return ValidationError{"source", "exactly one of path or symbol is required"}
	}
	from, err := parseDate(cfg.Source.From)
	if err != nil {
		return ValidationError{"source.from", err.Error()}
	}
	to, err := parseDate(cfg.Source.To)
	if err != nil {
		return ValidationError{"source.to", err.Error()}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return ValidationError{"source", "to must not be before from"}
	}

	// === Window ===
	if cfg.Window.LastMonths < 0 {
		return ValidationError{"window.last_months", "must be >= 0"}
	}
	if cfg.Window.Start != nil && *cfg.Window.Start < 0 {
		return ValidationError{"window.start", "must be >= 0"}
	}
	if cfg.Window.Start != nil && cfg.Window.End != nil && *cfg.Window.End < *cfg.Window.Start {
		return ValidationError{"window.end", "must be >= start"}
	}

	// === Market ===
	if !finite(cfg.Market.Rate) {
		return ValidationError{"market.rate", "must be finite"}
	}
	if !finite(cfg.Market.Dividend) {
		return ValidationError{"market.dividend", "must be finite"}
	}
	if cfg.Market.Basis < 0 || !finite(cfg.Market.Basis) {
		return ValidationError{"market.basis", "must be > 0 (or omitted)"}
	}

	// === Option ===
	if _, err := contracts.ParseOptionType(cfg.Option.Kind); err != nil {
		return ValidationError{"option.kind", "must be call or put"}
	}
	if _, err := contracts.ParsePnLMode(cfg.Option.Mode); err != nil {
		return ValidationError{"option.mode", "must be auto, delta or robust"}
	}
	if (cfg.Option.Strike == nil) == (cfg.Option.StrikePct == nil) {
		return ValidationError{"option", "exactly one of strike or strike_pct is required"}
	}
	if cfg.Option.Strike != nil && !(*cfg.Option.Strike > 0) {
		return ValidationError{"option.strike", "must be > 0"}
	}
	if cfg.Option.StrikePct != nil && !(*cfg.Option.StrikePct > 0) {
		return ValidationError{"option.strike_pct", "must be > 0"}
	}

	// === Solver ===
	if err := SolverFrom(cfg.Solver, volsolver.DefaultConfig()).Validate(); err != nil {
		return ValidationError{"solver", err.Error()}
	}

	// === PnL / Skew ===
	for i, v := range cfg.PnL.Vols {
		if !(v >= 0) || !finite(v) {
			return ValidationError{fmt.Sprintf("pnl.vols[%d]", i), "must be >= 0"}
		}
	}
	for i, k := range cfg.Skew.StrikesPct {
		if !(k > 0) || !finite(k) {
			return ValidationError{fmt.Sprintf("skew.strikes_pct[%d]", i), "must be > 0"}
		}
	}

	return nil
}

// SolverFrom overlays the non-zero fields of s on base
func SolverFrom(s SolverConfig, base volsolver.Config) volsolver.Config {
	if s.Tol != 0 {
		base.Tol = s.Tol
	}
	if s.Precision != 0 {
		base.Precision = s.Precision
	}
	if s.VLow != 0 {
		base.VLow = s.VLow
	}
	if s.VHigh != 0 {
		base.VHigh = s.VHigh
	}
	if s.MaxIter != 0 {
		base.MaxIter = s.MaxIter
	}
	if s.Policy != "" {
		base.Policy = volsolver.StopPolicy(s.Policy)
	}
	base.Target = s.Target
	return base
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(series.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want %s, got %q", series.DateLayout, s)
	}
	return t, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
