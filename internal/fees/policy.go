/*

This file contains the dynamic fee policy: a fixed-priority decision ladder
over the tracked market signals. The first matching branch wins; branches
are never blended.

*/

package fees

import (
	sdkmath "cosmossdk.io/math"
)

// Fee bounds and surcharges, in parts per million of notional.
const (
	BaseFee uint64 = 3000 // 0.3%
	MinFee  uint64 = 500  // 0.05%; lower bound only, the ladder never yields it
	MaxFee  uint64 = 10000 // 1%

	congestionSurcharge    uint64 = 2000 // high volume against thin liquidity
	highVolumeSurcharge    uint64 = 1000
	priceImpactSurcharge   uint64 = 1500
	thinLiquiditySurcharge uint64 = 500
)

// Ladder thresholds.
var (
	volatilityCeiling    = sdkmath.LegacyNewDec(1000)
	highVolumeThreshold  = sdkmath.LegacyNewDec(1000)
	thinDepthForVolume   = sdkmath.LegacyNewDec(10)
	lowDepthThreshold    = sdkmath.LegacyNewDec(200)
	priceImpactThreshold = sdkmath.LegacyNewDecWithPrec(2, 2) // 0.02 == 2%
)

// Inputs are the tracked signals the policy reads. All values are
// fixed-point LegacyDec in whole-token units.
type Inputs struct {
	Volatility         sdkmath.LegacyDec
	TradingVolume      sdkmath.LegacyDec
	LiquidityDepth     sdkmath.LegacyDec
	AveragePriceImpact sdkmath.LegacyDec
}

// DynamicFee evaluates the decision ladder and returns the fee in ppm.
//
// Priority order, first match wins:
//  1. extreme volatility        -> MaxFee
//  2. high volume, thin depth   -> BaseFee + 2000
//  3. high volume               -> BaseFee + 1000
//  4. high average price impact -> BaseFee + 1500
//  5. low liquidity depth       -> BaseFee + 500
//  6. otherwise                 -> BaseFee
func DynamicFee(in Inputs) uint64 {
	switch {
	case in.Volatility.GT(volatilityCeiling):
		return MaxFee
	case in.TradingVolume.GT(highVolumeThreshold) && in.LiquidityDepth.LT(thinDepthForVolume):
		return BaseFee + congestionSurcharge
	case in.TradingVolume.GT(highVolumeThreshold):
		return BaseFee + highVolumeSurcharge
	case in.AveragePriceImpact.GT(priceImpactThreshold):
		return BaseFee + priceImpactSurcharge
	case in.LiquidityDepth.LT(lowDepthThreshold):
		return BaseFee + thinLiquiditySurcharge
	default:
		return BaseFee
	}
}

// ValidBaseFee reports whether a configured base fee sits inside the
// [MinFee, MaxFee] bounds the policy respects.
func ValidBaseFee(fee uint64) bool {
	return fee >= MinFee && fee <= MaxFee
}
