/*

This file contains the sentinel errors surfaced by the hook engine.

All of these are local, synchronous, non-retryable rejections of the
triggering call. The engine never retries internally; the caller decides.

*/

package types

import "errors"

var (
	// ErrInvalidFee indicates a configured fee outside the [MinFee, MaxFee]
	// bounds.
	ErrInvalidFee = errors.New("invalid fee")

	// ErrUnauthorized indicates the caller is neither the position owner
	// nor an authorized rebalancer for the attempted action.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInsufficientLiquidity indicates the pool's liquidity depth cannot
	// support the operation (for example fee settlement against a pool
	// with zero depth).
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")

	// ErrVolatilityTooHigh indicates market volatility is above the ceiling
	// for opening new positions.
	ErrVolatilityTooHigh = errors.New("volatility too high")

	// ErrRebalanceCooldownNotElapsed indicates a rebalance was attempted
	// before the per-pool cooldown expired.
	ErrRebalanceCooldownNotElapsed = errors.New("rebalance cooldown not elapsed")

	// ErrMaxPositionsReached indicates the pool already holds the maximum
	// number of all-time position entries, tombstoned ones included.
	ErrMaxPositionsReached = errors.New("max positions reached")

	// ErrInsufficientLiquidityAmount indicates a position creation below
	// the minimum liquidity amount.
	ErrInsufficientLiquidityAmount = errors.New("insufficient liquidity amount")

	// ErrPositionNotFound indicates a position index out of range.
	ErrPositionNotFound = errors.New("position not found")

	// ErrPositionNotActive indicates an operation on a tombstoned position.
	ErrPositionNotActive = errors.New("position not active")

	// ErrPoolNotRegistered indicates an operation on a pool the engine has
	// not been initialized for.
	ErrPoolNotRegistered = errors.New("pool not registered")
)
