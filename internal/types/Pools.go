/*

This file contains the per-pool market state tracked by the hook engine,
along with the static pool configuration the engine is initialized with.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type PoolID uint64

// PoolConfig holds the static parameters a pool is registered with.
// TickSpacing comes from the hosting pool engine; BaseFee is the pool's
// configured fee floor in parts per million.
type PoolConfig struct {
	ID          PoolID `json:"id"`
	TickSpacing int64  `json:"tick_spacing"`
	BaseFee     uint64 `json:"base_fee"`
}

// PoolMarketState is the mutable market-condition record kept per pool.
// All fixed-point fields use sdkmath.LegacyDec (18 decimal places).
type PoolMarketState struct {
	LastTick int64 `json:"last_tick"`

	// Running mean of observed transaction gas prices. The count is a plain
	// bounded counter; on overflow it wraps silently, which is an accepted
	// edge case rather than something the engine guards against.
	MovingAverageGasPrice      uint64 `json:"moving_average_gas_price"`
	MovingAverageGasPriceCount uint64 `json:"moving_average_gas_price_count"`

	// Exponential moving average of absolute per-event tick change.
	// Zero means uninitialized; the first nonzero sample seeds it directly.
	PriceVolatilityEMA sdkmath.LegacyDec `json:"price_volatility_ema"`

	// Cumulative swap magnitude inside the current fixed volume window.
	TradingVolume sdkmath.LegacyDec `json:"trading_volume"`

	// Total liquidity in the active range. Floored at zero.
	LiquidityDepth sdkmath.LegacyDec `json:"liquidity_depth"`

	LastVolatilityUpdate time.Time `json:"last_volatility_update"`
	LastVolumeUpdate     time.Time `json:"last_volume_update"`
	LastRebalance        time.Time `json:"last_rebalance"`

	CurrentRangeWidth int64 `json:"current_range_width"`
	OptimalRangeWidth int64 `json:"optimal_range_width"`

	RebalanceCount uint64 `json:"rebalance_count"`

	// CurrentFee is the dynamic fee in force, in parts per million.
	CurrentFee uint64 `json:"current_fee"`

	// FeeRevenue accumulates all fee revenue ever charged to the pool.
	// It only grows.
	FeeRevenue sdkmath.LegacyDec `json:"fee_revenue"`

	// Incremental mean of per-swap price impact ratios (1.0 == 100%).
	AveragePriceImpact sdkmath.LegacyDec `json:"average_price_impact"`
	PriceImpactCount   uint64            `json:"price_impact_count"`
}

// NewPoolMarketState returns a zeroed market state. Every LegacyDec field is
// explicitly initialized; the LegacyDec zero value is nil and panics on use.
func NewPoolMarketState() PoolMarketState {
	return PoolMarketState{
		PriceVolatilityEMA: sdkmath.LegacyZeroDec(),
		TradingVolume:      sdkmath.LegacyZeroDec(),
		LiquidityDepth:     sdkmath.LegacyZeroDec(),
		FeeRevenue:         sdkmath.LegacyZeroDec(),
		AveragePriceImpact: sdkmath.LegacyZeroDec(),
	}
}
