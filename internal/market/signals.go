/*

This file contains the pure fixed-point estimators behind the market signal
tracker: the volatility EMA, the incremental means used for gas price and
price impact, and the fee revenue formula.

The EMA is the only genuinely exponential estimator here. The gas price and
price impact averages are plain incremental means, and the analytics-side
average volatility is a 2-point average. They look similar but behave very
differently over long horizons; keep them separate.

*/

package market

import (
	sdkmath "cosmossdk.io/math"
)

// DefaultAlpha is the EMA smoothing factor for the volatility estimator.
var DefaultAlpha = sdkmath.LegacyNewDecWithPrec(2, 1) // 0.2

// feePrecision is the fee denominator: fees are quoted in parts per million.
var feePrecision = sdkmath.LegacyNewDec(1_000_000)

// BlendVolatility folds a new absolute tick change into the volatility EMA.
// A zero previous EMA means the estimator is uninitialized, and the sample
// seeds it directly with no blending.
func BlendVolatility(prev sdkmath.LegacyDec, absTickChange int64, alpha sdkmath.LegacyDec) sdkmath.LegacyDec {
	sample := sdkmath.LegacyNewDec(absTickChange)
	if prev.IsZero() {
		return sample
	}
	oneMinusAlpha := sdkmath.LegacyOneDec().Sub(alpha)
	return alpha.Mul(sample).Add(oneMinusAlpha.Mul(prev))
}

// IncrementalMean folds a sample into a running integer mean.
// avg' = (avg*count + sample) / (count+1). The first sample (count == 0)
// becomes the mean directly. The caller owns the counter increment, and the
// counter wraps on overflow by design.
func IncrementalMean(avg, count, sample uint64) uint64 {
	if count == 0 {
		return sample
	}
	return (avg*count + sample) / (count + 1)
}

// IncrementalMeanDec is the fixed-point twin of IncrementalMean, used for
// the price impact average.
func IncrementalMeanDec(avg sdkmath.LegacyDec, count uint64, sample sdkmath.LegacyDec) sdkmath.LegacyDec {
	if count == 0 {
		return sample
	}
	n := sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(count))
	return avg.Mul(n).Add(sample).Quo(n.Add(sdkmath.LegacyOneDec()))
}

// TwoPointAverage is the arithmetic mean of the previous value and the new
// sample. The analytics-side average volatility uses this instead of a
// weighted EMA; do not unify the two.
func TwoPointAverage(prev, sample sdkmath.LegacyDec) sdkmath.LegacyDec {
	return prev.Add(sample).QuoInt64(2)
}

// PriceImpact computes |outputDelta| / |specifiedAmount| capped at 1.0
// (100%). The second return is false when either amount is zero, in which
// case the sample must be skipped entirely.
func PriceImpact(specifiedAmount, outputDelta sdkmath.Int) (sdkmath.LegacyDec, bool) {
	if specifiedAmount.IsZero() || outputDelta.IsZero() {
		return sdkmath.LegacyZeroDec(), false
	}
	impact := sdkmath.LegacyNewDecFromInt(outputDelta.Abs()).
		Quo(sdkmath.LegacyNewDecFromInt(specifiedAmount.Abs()))
	if impact.GT(sdkmath.LegacyOneDec()) {
		impact = sdkmath.LegacyOneDec()
	}
	return impact, true
}

// FeeAmount computes the fee charged on a swap: |amount| * fee / 1_000_000.
func FeeAmount(specifiedAmount sdkmath.Int, feePPM uint64) sdkmath.LegacyDec {
	notional := sdkmath.LegacyNewDecFromInt(specifiedAmount.Abs())
	fee := sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(feePPM))
	return notional.Mul(fee).Quo(feePrecision)
}

// ImpermanentLossEstimate approximates IL from volatility alone:
// volatility^2 / 10000, capped at 1.0 (100%).
func ImpermanentLossEstimate(volatility sdkmath.LegacyDec) sdkmath.LegacyDec {
	il := volatility.Mul(volatility).QuoInt64(10000)
	if il.GT(sdkmath.LegacyOneDec()) {
		return sdkmath.LegacyOneDec()
	}
	return il
}
