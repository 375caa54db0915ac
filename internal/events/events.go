/*

This file contains the notification payloads the engine broadcasts to
observers. Delivery is one-way and best effort; nothing in the core waits on
or retries a notification.

*/

package events

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// Event is a broadcast notification from the engine.
type Event interface {
	Kind() string
	Pool() types.PoolID
}

// MarketMetricsUpdated is emitted after every market-conditions update.
type MarketMetricsUpdated struct {
	PoolID         types.PoolID      `json:"pool_id"`
	Volatility     sdkmath.LegacyDec `json:"volatility"`
	TradingVolume  sdkmath.LegacyDec `json:"trading_volume"`
	LiquidityDepth sdkmath.LegacyDec `json:"liquidity_depth"`
	At             time.Time         `json:"at"`
}

func (MarketMetricsUpdated) Kind() string { return "market_metrics_updated" }
func (e MarketMetricsUpdated) Pool() types.PoolID { return e.PoolID }

// FeeAdjusted is emitted when the dynamic fee in force changes.
type FeeAdjusted struct {
	PoolID types.PoolID `json:"pool_id"`
	OldFee uint64       `json:"old_fee"`
	NewFee uint64       `json:"new_fee"`
	At     time.Time    `json:"at"`
}

func (FeeAdjusted) Kind() string { return "fee_adjusted" }
func (e FeeAdjusted) Pool() types.PoolID { return e.PoolID }

// PositionCreated is emitted when a new position enters the ledger.
type PositionCreated struct {
	PoolID    types.PoolID `json:"pool_id"`
	Index     int          `json:"index"`
	Owner     string       `json:"owner"`
	Liquidity sdkmath.Int  `json:"liquidity"`
	TickLower int64        `json:"tick_lower"`
	TickUpper int64        `json:"tick_upper"`
	At        time.Time    `json:"at"`
}

func (PositionCreated) Kind() string { return "position_created" }
func (e PositionCreated) Pool() types.PoolID { return e.PoolID }

// PositionRemoved is emitted when a position is tombstoned.
type PositionRemoved struct {
	PoolID    types.PoolID `json:"pool_id"`
	Index     int          `json:"index"`
	Owner     string       `json:"owner"`
	Liquidity sdkmath.Int  `json:"liquidity"`
	At        time.Time    `json:"at"`
}

func (PositionRemoved) Kind() string { return "position_removed" }
func (e PositionRemoved) Pool() types.PoolID { return e.PoolID }

// FeesCollected is emitted when a position's fee entitlement is paid out.
type FeesCollected struct {
	PoolID types.PoolID      `json:"pool_id"`
	Index  int               `json:"index"`
	Owner  string            `json:"owner"`
	Amount sdkmath.LegacyDec `json:"amount"`
	At     time.Time         `json:"at"`
}

func (FeesCollected) Kind() string { return "fees_collected" }
func (e FeesCollected) Pool() types.PoolID { return e.PoolID }

// PositionRebalanced is emitted per position moved during a rebalance.
type PositionRebalanced struct {
	PoolID   types.PoolID `json:"pool_id"`
	Index    int          `json:"index"`
	OldLower int64        `json:"old_lower"`
	OldUpper int64        `json:"old_upper"`
	NewLower int64        `json:"new_lower"`
	NewUpper int64        `json:"new_upper"`
	At       time.Time    `json:"at"`
}

func (PositionRebalanced) Kind() string { return "position_rebalanced" }
func (e PositionRebalanced) Pool() types.PoolID { return e.PoolID }

// PoolRebalanced is emitted once per completed rebalance. RebalanceID ties
// the per-position notifications of one rebalance together in logs.
type PoolRebalanced struct {
	RebalanceID    string       `json:"rebalance_id"`
	PoolID         types.PoolID `json:"pool_id"`
	Tick           int64        `json:"tick"`
	NewLower       int64        `json:"new_lower"`
	NewUpper       int64        `json:"new_upper"`
	PositionsMoved int          `json:"positions_moved"`
	RebalanceCount uint64       `json:"rebalance_count"`
	Forced         bool         `json:"forced"`
	At             time.Time    `json:"at"`
}

func (PoolRebalanced) Kind() string { return "pool_rebalanced" }
func (e PoolRebalanced) Pool() types.PoolID { return e.PoolID }
