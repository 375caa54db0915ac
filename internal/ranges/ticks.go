/*

This file contains tick alignment math and the target range derivation used
by the rebalance executor.

*/

package ranges

import (
	sdkmath "cosmossdk.io/math"
)

// FloorToSpacing aligns a tick down to the nearest multiple of the pool's
// tick spacing, rounding toward negative infinity. Plain integer division
// truncates toward zero, which is wrong for negative ticks that are not on
// a spacing boundary.
func FloorToSpacing(tick, spacing int64) int64 {
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}

// TargetRange derives the new position range centered on the current tick
// for the given optimal width. Half the width is applied on each side with
// truncating division, both bounds are floored to the tick spacing, and the
// upper bound is pushed out one interval so the range stays non-empty.
func TargetRange(currentTick, optimalWidth, spacing int64) (lower, upper int64) {
	half := optimalWidth / 2
	lower = FloorToSpacing(currentTick-half, spacing)
	upper = FloorToSpacing(currentTick+half, spacing) + spacing
	return lower, upper
}

// Drift is the ratio of absolute tick movement to the current range width.
// A zero or negative width yields zero drift; the width mismatch check in
// the decision engine fires long before that situation matters.
func Drift(currentTick, lastTick, rangeWidth int64) sdkmath.LegacyDec {
	if rangeWidth <= 0 {
		return sdkmath.LegacyZeroDec()
	}
	delta := currentTick - lastTick
	if delta < 0 {
		delta = -delta
	}
	return sdkmath.LegacyNewDec(delta).Quo(sdkmath.LegacyNewDec(rangeWidth))
}
