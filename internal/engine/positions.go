/*

This file contains the position lifecycle operations: create, remove and
fee collection. Create and remove each pair a ledger mutation with an
external liquidity leg; the external leg runs first so a failure there
leaves the ledger untouched.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/Ternder001/AutoRebalancingHook/internal/events"
	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// CreatePosition opens a new liquidity position and returns its ledger
// index. Entry is refused while the pool's volatility EMA is above the
// configured ceiling, and the pool's all-time position cap is enforced
// before the external deposit is attempted.
func (e *Engine) CreatePosition(poolID types.PoolID, owner string, tickLower, tickUpper int64, liquidity sdkmath.Int) (int, error) {
	if owner == "" {
		return 0, fmt.Errorf("owner address cannot be empty")
	}
	if tickLower >= tickUpper {
		return 0, fmt.Errorf("invalid tick range [%d, %d)", tickLower, tickUpper)
	}

	s, err := e.shardFor(poolID)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.state
	if st.PriceVolatilityEMA.GT(e.params.MaxEntryVolatility) {
		return 0, fmt.Errorf("%w: volatility %s above entry ceiling %s",
			types.ErrVolatilityTooHigh, st.PriceVolatilityEMA.String(), e.params.MaxEntryVolatility.String())
	}
	if err := s.book.CanAppend(liquidity); err != nil {
		return 0, err
	}

	if err := e.pool.ApplyLiquidityDelta(poolID, tickLower, tickUpper, liquidity); err != nil {
		return 0, fmt.Errorf("failed to deposit liquidity for pool %d: %w", poolID, err)
	}

	now := e.clock.Now()
	idx, err := s.book.Append(owner, tickLower, tickUpper, liquidity, now)
	if err != nil {
		// CanAppend passed under the same lock, so this cannot happen.
		return 0, err
	}
	st.LiquidityDepth = st.LiquidityDepth.Add(sdkmath.LegacyNewDecFromInt(liquidity))

	e.logger.Info().
		Uint64("pool_id", uint64(poolID)).
		Int("index", idx).
		Str("owner", owner).
		Str("liquidity", liquidity.String()).
		Int64("tick_lower", tickLower).
		Int64("tick_upper", tickUpper).
		Msg("Position created")

	e.recorder.Record(events.PositionCreated{
		PoolID:    poolID,
		Index:     idx,
		Owner:     owner,
		Liquidity: liquidity,
		TickLower: tickLower,
		TickUpper: tickUpper,
		At:        now,
	})

	return idx, nil
}

// RemovePosition withdraws a position's liquidity, settles its outstanding
// fee entitlement and tombstones the ledger entry. The tombstone is
// terminal; the index stays occupied and counts against the pool cap
// forever. Returns the withdrawn liquidity.
func (e *Engine) RemovePosition(poolID types.PoolID, owner string, idx int) (sdkmath.Int, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return sdkmath.Int{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.book.Authorize(owner, idx)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if !pos.Active {
		return sdkmath.Int{}, fmt.Errorf("%w: position %d", types.ErrPositionNotActive, idx)
	}

	if err := e.pool.ApplyLiquidityDelta(poolID, pos.TickLower, pos.TickUpper, pos.Liquidity.Neg()); err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to withdraw liquidity for pool %d: %w", poolID, err)
	}

	st := &s.state
	now := e.clock.Now()

	// Settle at the pre-withdrawal depth; the position's own liquidity is
	// still part of the denominator it earned under.
	collected, err := s.book.SettleFees(owner, idx, st.FeeRevenue, st.LiquidityDepth)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if collected.IsPositive() {
		e.recorder.Record(events.FeesCollected{
			PoolID: poolID,
			Index:  idx,
			Owner:  owner,
			Amount: collected,
			At:     now,
		})
	}

	if err := s.book.Deactivate(idx); err != nil {
		return sdkmath.Int{}, err
	}

	st.LiquidityDepth = st.LiquidityDepth.Sub(sdkmath.LegacyNewDecFromInt(pos.Liquidity))
	if st.LiquidityDepth.IsNegative() {
		st.LiquidityDepth = sdkmath.LegacyZeroDec()
	}

	e.logger.Info().
		Uint64("pool_id", uint64(poolID)).
		Int("index", idx).
		Str("owner", owner).
		Str("liquidity", pos.Liquidity.String()).
		Str("fees_collected", collected.String()).
		Msg("Position removed")

	e.recorder.Record(events.PositionRemoved{
		PoolID:    poolID,
		Index:     idx,
		Owner:     owner,
		Liquidity: pos.Liquidity,
		At:        now,
	})

	return pos.Liquidity, nil
}

// CollectFees pays out a position's outstanding pro-rata fee entitlement.
// Claims are monotonic: a second call with no new fee revenue returns
// zero, and a shrinking entitlement never claws anything back.
func (e *Engine) CollectFees(poolID types.PoolID, owner string, idx int) (sdkmath.LegacyDec, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.state
	collected, err := s.book.SettleFees(owner, idx, st.FeeRevenue, st.LiquidityDepth)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if collected.IsPositive() {
		e.recorder.Record(events.FeesCollected{
			PoolID: poolID,
			Index:  idx,
			Owner:  owner,
			Amount: collected,
			At:     e.clock.Now(),
		})
	}
	return collected, nil
}
