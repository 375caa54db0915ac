/*

This file contains the default tuning parameters for the hook engine.

The windows and thresholds interlock, so change them together or not at all.

*/

package config

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// EngineParameters holds every tunable the engine reads at runtime.
type EngineParameters struct {
	// VolumeWindow is the fixed window for the rolling trading volume.
	// The window resets to zero when it has fully elapsed at the start of
	// an update; volume is not continuously decayed.
	VolumeWindow time.Duration

	// RebalanceCooldown is the minimum time between two rebalances of the
	// same pool. A hard gate for every path except the force capability.
	RebalanceCooldown time.Duration

	// VolatilityAlpha is the EMA smoothing factor for tick-change
	// volatility.
	VolatilityAlpha sdkmath.LegacyDec

	// DriftThreshold is the tick-drift ratio beyond which a rebalance is
	// warranted even when the range width already matches the optimum.
	DriftThreshold sdkmath.LegacyDec

	// MinLiquidityAmount is the smallest liquidity a new position may
	// bring.
	MinLiquidityAmount sdkmath.Int

	// MaxPositionsPerPool caps all-time position entries per pool,
	// tombstoned entries included. Indexes are identity and are never
	// reused, so the cap cannot be reclaimed by removing positions.
	MaxPositionsPerPool int

	// MaxEntryVolatility blocks new positions while the volatility EMA is
	// above this ceiling.
	MaxEntryVolatility sdkmath.LegacyDec

	// DefaultRangeWidth seeds CurrentRangeWidth at pool initialization.
	DefaultRangeWidth int64

	// SeedLiquidityDepth is the placeholder liquidity depth a fresh pool
	// starts with, before any position is created.
	SeedLiquidityDepth sdkmath.LegacyDec
}

// DefaultEngineParameters provides the baseline engine tuning.
var DefaultEngineParameters = EngineParameters{
	VolumeWindow: time.Hour,
	// 30 minutes between rebalances. Rebalancing moves every active
	// position through two external liquidity legs; doing that on every
	// drifting swap would burn the fee revenue it is meant to protect.
	RebalanceCooldown: 30 * time.Minute,

	VolatilityAlpha: sdkmath.LegacyNewDecWithPrec(2, 1), // 0.2

	DriftThreshold: sdkmath.LegacyNewDecWithPrec(5, 2), // 5%

	MinLiquidityAmount: sdkmath.NewInt(1000),

	MaxPositionsPerPool: 10,

	// New entries are blocked well before the fee ladder's MaxFee branch
	// territory; a pool this volatile is repricing, not accepting LPs.
	MaxEntryVolatility: sdkmath.LegacyNewDec(2000),

	DefaultRangeWidth: 60,

	SeedLiquidityDepth: sdkmath.LegacyNewDec(1000),
}
