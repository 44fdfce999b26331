package contracts

import (
	"fmt"
	"strings"
)

// OptionType selects the payoff of a European option
// ⭐ SSOT: call/put 구분은 이 타입으로만
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"c" and "put"/"p", case-insensitively
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("%w: unknown option type %q", ErrInvalidParameter, s)
}

// Validate reports whether o is one of the two variants
func (o OptionType) Validate() error {
	if o != Call && o != Put {
		return fmt.Errorf("%w: unknown option type %q", ErrInvalidParameter, string(o))
	}
	return nil
}

// Sign is +1 for a call and -1 for a put
func (o OptionType) Sign() float64 {
	if o == Put {
		return -1
	}
	return 1
}

// PnLMode selects the hedge P&L metric
type PnLMode string

const (
	// ModeAutoFinancing replicates with a self-financing cash account
	ModeAutoFinancing PnLMode = "auto"
	// ModeDelta accumulates the delta leg only, no financing
	ModeDelta PnLMode = "delta"
	// ModeRobust is the gamma-weighted variance estimator
	ModeRobust PnLMode = "robust"
)

// ParsePnLMode parses a mode name. "full" and "gamma" are accepted aliases.
func ParsePnLMode(s string) (PnLMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "full", "":
		return ModeAutoFinancing, nil
	case "delta":
		return ModeDelta, nil
	case "robust", "gamma":
		return ModeRobust, nil
	}
	return "", fmt.Errorf("%w: unknown pnl mode %q", ErrInvalidParameter, s)
}

// Validate reports whether m is a known mode
func (m PnLMode) Validate() error {
	switch m {
	case ModeAutoFinancing, ModeDelta, ModeRobust:
		return nil
	}
	return fmt.Errorf("%w: unknown pnl mode %q", ErrInvalidParameter, string(m))
}
