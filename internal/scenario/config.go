package scenario

import "time"

// Config is one scenario file: where the prices come from, which window
// and option to evaluate, and what to compute.
// ⭐ SSOT: 시나리오 파일 구조는 여기서만 정의
type Config struct {
	Meta   Meta         `yaml:"meta" json:"meta"`
	Source Source       `yaml:"source" json:"source"`
	Window Window       `yaml:"window" json:"window"`
	Market Market       `yaml:"market" json:"market"`
	Option Option       `yaml:"option" json:"option"`
	Solver SolverConfig `yaml:"solver" json:"solver"`
	PnL    PnLConfig    `yaml:"pnl" json:"pnl"`
	Skew   SkewConfig   `yaml:"skew" json:"skew"`
}

type Meta struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Source is either a CSV path or a symbol in the price database.
// Dates use the 2006-01-02 layout.
type Source struct {
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
	Symbol string `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	From   string `yaml:"from,omitempty" json:"from,omitempty"`
	To     string `yaml:"to,omitempty" json:"to,omitempty"`
}

// Window selects [start, end). LastMonths takes precedence over Start/End.
type Window struct {
	LastMonths int  `yaml:"last_months,omitempty" json:"last_months,omitempty"`
	AnchorNext bool `yaml:"anchor_next,omitempty" json:"anchor_next,omitempty"`
	Start      *int `yaml:"start,omitempty" json:"start,omitempty"`
	End        *int `yaml:"end,omitempty" json:"end,omitempty"`
}

type Market struct {
	Rate     float64 `yaml:"rate" json:"rate"`
	Dividend float64 `yaml:"dividend" json:"dividend"`
	Basis    float64 `yaml:"basis,omitempty" json:"basis,omitempty"` // default 252
}

// Option describes the hedged option. Exactly one of Strike or StrikePct is set.
type Option struct {
	Kind      string   `yaml:"kind" json:"kind"`
	Mode      string   `yaml:"mode" json:"mode"`
	Strike    *float64 `yaml:"strike,omitempty" json:"strike,omitempty"`
	StrikePct *float64 `yaml:"strike_pct,omitempty" json:"strike_pct,omitempty"`
}

// SolverConfig overrides the solver defaults; zero values keep the default
type SolverConfig struct {
	Tol       float64 `yaml:"tol,omitempty" json:"tol,omitempty"`
	Precision float64 `yaml:"precision,omitempty" json:"precision,omitempty"`
	VLow      float64 `yaml:"v_low,omitempty" json:"v_low,omitempty"`
	VHigh     float64 `yaml:"v_high,omitempty" json:"v_high,omitempty"`
	MaxIter   int     `yaml:"max_iter,omitempty" json:"max_iter,omitempty"`
	Policy    string  `yaml:"policy,omitempty" json:"policy,omitempty"`
	Target    float64 `yaml:"target,omitempty" json:"target,omitempty"`
}

// PnLConfig lists volatilities at which to report the P&L of every mode
type PnLConfig struct {
	Vols []float64 `yaml:"vols,omitempty" json:"vols,omitempty"`
}

// SkewConfig lists strikes in percent of the spot at start
type SkewConfig struct {
	StrikesPct []float64 `yaml:"strikes_pct,omitempty" json:"strikes_pct,omitempty"`
}

// RunSnapshot ties a report to the exact scenario that produced it
type RunSnapshot struct {
	RunID      string    `json:"run_id"`
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	Scenario   string    `json:"scenario"`
	CreatedAt  time.Time `json:"created_at"`
}
