package contracts

import "errors"

// Error taxonomy shared by the pricing, hedge and solver packages.
// Callers match with errors.Is; all of them leave the portfolio usable.
var (
	// ErrInvalidParameter: non-positive spot/strike, negative volatility, unknown enum value
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrRange: window bounds violate start <= end <= size
	ErrRange = errors.New("range error")

	// ErrNoBracket: the search bracket does not straddle a sign change
	ErrNoBracket = errors.New("no bracket")

	// ErrNonConvergence: iteration budget exhausted before the stop rule was met
	ErrNonConvergence = errors.New("non convergence")
)
