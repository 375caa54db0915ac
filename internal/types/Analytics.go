/*

This file contains the derived, read-mostly analytics record kept per pool.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// PoolAnalytics holds pool-level summary statistics derived from the
// market state and rebalance history.
type PoolAnalytics struct {
	TotalVolume     sdkmath.LegacyDec `json:"total_volume"`
	TotalFeeRevenue sdkmath.LegacyDec `json:"total_fee_revenue"`

	// AverageVolatility is a simple running 2-point average between its
	// previous value and the latest volatility EMA. It is deliberately not
	// a true EMA and must not be unified with PriceVolatilityEMA.
	AverageVolatility sdkmath.LegacyDec `json:"average_volatility"`

	// RebalanceEfficiency is fee revenue per rebalance. Zero until the
	// first rebalance happens.
	RebalanceEfficiency sdkmath.LegacyDec `json:"rebalance_efficiency"`

	// ImpermanentLoss approximates LP value erosion from volatility alone:
	// volatility^2 / 10000, capped at 1.0 (100%).
	ImpermanentLoss sdkmath.LegacyDec `json:"impermanent_loss"`

	LastUpdate time.Time `json:"last_update"`
}

// NewPoolAnalytics returns a zeroed analytics record with every LegacyDec
// field initialized.
func NewPoolAnalytics() PoolAnalytics {
	return PoolAnalytics{
		TotalVolume:         sdkmath.LegacyZeroDec(),
		TotalFeeRevenue:     sdkmath.LegacyZeroDec(),
		AverageVolatility:   sdkmath.LegacyZeroDec(),
		RebalanceEfficiency: sdkmath.LegacyZeroDec(),
		ImpermanentLoss:     sdkmath.LegacyZeroDec(),
	}
}
