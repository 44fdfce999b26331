package hedge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/pricing"
)

var allModes = []contracts.PnLMode{contracts.ModeAutoFinancing, contracts.ModeDelta, contracts.ModeRobust}

func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// zigzag alternates between lo and hi, which gives a stable realized vol
func zigzag(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = lo
		} else {
			out[i] = hi
		}
	}
	return out
}

func TestPnL_EmptyWindowIsZero(t *testing.T) {
	snap := Snapshot{Strike: 100, Rate: 0.03, Dividend: 0.01, Basis: DefaultBasis}

	for _, mode := range allModes {
		for _, kind := range []contracts.OptionType{contracts.Call, contracts.Put} {
			got, err := PnL(snap, mode, 0.25, kind)
			require.NoError(t, err)
			assert.Equal(t, 0.0, got, "%s/%s", mode, kind)
		}
	}
}

func TestPnL_FlatPathWithoutCarry(t *testing.T) {
	const (
		n   = 40
		vol = 0.2
	)

	tests := []struct {
		name   string
		kind   contracts.OptionType
		spot   float64
		strike float64
	}{
		{"atm call", contracts.Call, 100, 100},
		{"itm call", contracts.Call, 110, 100},
		{"otm put", contracts.Put, 110, 100},
		{"itm put", contracts.Put, 90, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Snapshot{Prices: flat(n, tt.spot), Strike: tt.strike, Basis: DefaultBasis}

			premium, err := pricing.Price(tt.kind, pricing.Params{
				Spot: tt.spot, Strike: tt.strike, Maturity: n / DefaultBasis, Vol: vol,
			})
			require.NoError(t, err)
			want := pricing.Payoff(tt.kind, tt.spot, tt.strike) - premium

			auto, err := PnL(snap, contracts.ModeAutoFinancing, vol, tt.kind)
			require.NoError(t, err)
			assert.InDelta(t, want, auto, 1e-10)

			delta, err := PnL(snap, contracts.ModeDelta, vol, tt.kind)
			require.NoError(t, err)
			assert.InDelta(t, want, delta, 1e-10)

			robust, err := PnL(snap, contracts.ModeRobust, vol, tt.kind)
			require.NoError(t, err)
			assert.LessOrEqual(t, robust, 0.0)
		})
	}
}

func TestPnL_AutoMatchesDeltaWithoutCarry(t *testing.T) {
	prices := []float64{100, 101.5, 99.8, 102.3, 103.1, 101.0, 104.2, 105.0, 103.7, 106.1}

	for _, kind := range []contracts.OptionType{contracts.Call, contracts.Put} {
		snap := Snapshot{Prices: prices, Strike: 102, Basis: DefaultBasis}

		auto, err := PnL(snap, contracts.ModeAutoFinancing, 0.3, kind)
		require.NoError(t, err)
		delta, err := PnL(snap, contracts.ModeDelta, 0.3, kind)
		require.NoError(t, err)

		assert.InDelta(t, delta, auto, 1e-10, string(kind))
	}
}

func TestPnL_CarryChangesAutoOnly(t *testing.T) {
	prices := zigzag(30, 100, 101)
	base := Snapshot{Prices: prices, Strike: 100.5, Basis: DefaultBasis}
	carry := base
	carry.Rate = 0.05

	deltaBase, err := PnL(base, contracts.ModeDelta, 0.2, contracts.Call)
	require.NoError(t, err)
	autoBase, err := PnL(base, contracts.ModeAutoFinancing, 0.2, contracts.Call)
	require.NoError(t, err)
	autoCarry, err := PnL(carry, contracts.ModeAutoFinancing, 0.2, contracts.Call)
	require.NoError(t, err)

	assert.InDelta(t, deltaBase, autoBase, 1e-10)
	assert.NotEqual(t, autoBase, autoCarry)
}

func TestPnL_DecreasesWithVol(t *testing.T) {
	// realized vol of the zigzag is about 0.159
	snap := Snapshot{Prices: zigzag(61, 100, 101), Strike: 100.5, Basis: DefaultBasis}

	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			low, err := PnL(snap, mode, 0.05, contracts.Call)
			require.NoError(t, err)
			high, err := PnL(snap, mode, 0.6, contracts.Call)
			require.NoError(t, err)

			assert.Greater(t, low, 0.0)
			assert.Less(t, high, 0.0)
		})
	}
}

func TestPnL_ZeroVol(t *testing.T) {
	snap := Snapshot{Prices: []float64{100, 102, 98, 101}, Strike: 99, Basis: DefaultBasis}

	for _, mode := range allModes {
		_, err := PnL(snap, mode, 0, contracts.Call)
		assert.NoError(t, err, string(mode))
	}

	robust, err := PnL(snap, contracts.ModeRobust, 0, contracts.Call)
	require.NoError(t, err)
	assert.Equal(t, 0.0, robust)
}

func TestPnL_InvalidInputs(t *testing.T) {
	valid := Snapshot{Prices: []float64{100, 101}, Strike: 100, Basis: DefaultBasis}

	tests := []struct {
		name string
		snap Snapshot
		mode contracts.PnLMode
		vol  float64
		kind contracts.OptionType
	}{
		{"negative vol", valid, contracts.ModeDelta, -0.1, contracts.Call},
		{"nan vol", valid, contracts.ModeDelta, math.NaN(), contracts.Call},
		{"unknown mode", valid, contracts.PnLMode("vega"), 0.2, contracts.Call},
		{"unknown kind", valid, contracts.ModeDelta, 0.2, contracts.OptionType("straddle")},
		{"zero basis", Snapshot{Prices: valid.Prices, Strike: 100}, contracts.ModeDelta, 0.2, contracts.Call},
		{"zero strike", Snapshot{Prices: valid.Prices, Basis: DefaultBasis}, contracts.ModeAutoFinancing, 0.2, contracts.Put},
		{"non positive price", Snapshot{Prices: []float64{100, 0}, Strike: 100, Basis: DefaultBasis}, contracts.ModeRobust, 0.2, contracts.Call},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PnL(tt.snap, tt.mode, tt.vol, tt.kind)
			assert.ErrorIs(t, err, contracts.ErrInvalidParameter)
		})
	}
}

func TestSimulate_Trace(t *testing.T) {
	snap := Snapshot{Prices: []float64{100, 101, 99, 100.5}, Strike: 100, Rate: 0.02, Basis: DefaultBasis}

	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			traced, err := Simulate(snap, mode, 0.25, contracts.Put, true)
			require.NoError(t, err)
			plain, err := Simulate(snap, mode, 0.25, contracts.Put, false)
			require.NoError(t, err)

			assert.Equal(t, plain.PnL, traced.PnL)
			assert.Empty(t, plain.Steps)
			require.NotEmpty(t, traced.Steps)
			assert.Equal(t, 0, traced.Steps[0].Index)
			assert.InDelta(t, 4/DefaultBasis, traced.Steps[0].Tau, 1e-15)
			assert.Equal(t, 0.0, traced.Payoff)
			assert.Greater(t, traced.Premium, 0.0)

			vega, err := pricing.Vega(contracts.Put, snap.params(0, 0.25))
			require.NoError(t, err)
			assert.Greater(t, vega, 0.0)
			assert.Equal(t, vega, traced.Vega)
		})
	}
}

func TestSnapshot_Maturity(t *testing.T) {
	snap := Snapshot{Prices: flat(126, 50), Basis: DefaultBasis}
	assert.InDelta(t, 0.5, snap.Maturity(), 1e-15)
}
