/*

This file contains the range width advisor: a pure function from volatility
and liquidity depth to a recommended tick-range width.

*/

package ranges

import (
	sdkmath "cosmossdk.io/math"
)

// Range width bounds in ticks.
const (
	MaxRangeWidth int64 = 60
	MinRangeWidth int64 = 5
)

var (
	extremeVolatility = sdkmath.LegacyNewDec(1000)
	highVolatility    = sdkmath.LegacyNewDec(500)
	midVolatility     = sdkmath.LegacyNewDec(200)
	minViableDepth    = sdkmath.LegacyOneDec()
)

// CalculateRangeWidth recommends a tick-range width for the given volatility
// and liquidity depth. Wider ranges under stress, tight ranges in calm
// liquid markets.
func CalculateRangeWidth(volatility, liquidityDepth sdkmath.LegacyDec) int64 {
	switch {
	case volatility.GT(extremeVolatility) || liquidityDepth.LT(minViableDepth):
		return MaxRangeWidth
	case volatility.GT(highVolatility):
		return 30
	case volatility.GT(midVolatility):
		return 20
	default:
		return MinRangeWidth
	}
}
