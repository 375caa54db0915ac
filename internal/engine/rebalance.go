/*

This file contains the rebalance decision and execution path. A rebalance
moves every active position of a pool to a fresh tick-aligned target range
around the current tick; each move is an atomic withdraw and deposit pair,
rolled back if the deposit leg fails.

*/

package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Ternder001/AutoRebalancingHook/internal/events"
	"github.com/Ternder001/AutoRebalancingHook/internal/ranges"
	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// CheckRebalancingNeeded reports whether the pool warrants a rebalance:
// the cooldown has elapsed and either the current range width no longer
// matches the optimum or the tick has drifted past the threshold.
func (e *Engine) CheckRebalancingNeeded(poolID types.PoolID) (bool, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.rebalanceNeededLocked(s)
}

func (e *Engine) rebalanceNeededLocked(s *shard) (bool, error) {
	st := &s.state

	if e.clock.Now().Sub(st.LastRebalance) < e.params.RebalanceCooldown {
		return false, nil
	}

	if st.CurrentRangeWidth != st.OptimalRangeWidth {
		return true, nil
	}

	quote, err := e.pool.CurrentTick(s.cfg.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read current tick for pool %d: %w", s.cfg.ID, err)
	}
	drift := ranges.Drift(quote.Tick, st.LastTick, st.CurrentRangeWidth)
	return drift.GT(e.params.DriftThreshold), nil
}

// ManualRebalance runs a rebalance on behalf of an authorized caller. The
// cooldown still applies; an unelapsed cooldown is reported as an error so
// the caller can distinguish it from a no-op.
func (e *Engine) ManualRebalance(poolID types.PoolID, caller string) (bool, error) {
	if !e.acl.Authorized(caller) {
		return false, fmt.Errorf("%w: %s is not an authorized rebalancer", types.ErrUnauthorized, caller)
	}

	s, err := e.shardFor(poolID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.clock.Now().Sub(s.state.LastRebalance) < e.params.RebalanceCooldown {
		return false, fmt.Errorf("%w: pool %d last rebalanced at %s",
			types.ErrRebalanceCooldownNotElapsed, poolID, s.state.LastRebalance.Format("15:04:05"))
	}

	return e.executeRebalanceLocked(s, false)
}

// ForceRebalance runs a rebalance bypassing the cooldown. This is the
// internal automation capability; it is deliberately not reachable from
// any caller-facing surface.
func (e *Engine) ForceRebalance(poolID types.PoolID) (bool, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.executeRebalanceLocked(s, true)
}

// executeRebalanceLocked moves every active position to the target range
// and refreshes the pool's rebalance bookkeeping. Returns whether anything
// changed.
func (e *Engine) executeRebalanceLocked(s *shard, force bool) (bool, error) {
	st := &s.state
	now := e.clock.Now()

	if !force && now.Sub(st.LastRebalance) < e.params.RebalanceCooldown {
		return false, nil
	}

	quote, err := e.pool.CurrentTick(s.cfg.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read current tick for pool %d: %w", s.cfg.ID, err)
	}
	tick := quote.Tick
	if tick == 0 && st.LastTick != 0 {
		// An unseeded quote source reports tick zero; fall back to the
		// last observed tick rather than recentering everything at par.
		tick = st.LastTick
	}

	newLower, newUpper := ranges.TargetRange(tick, st.OptimalRangeWidth, s.cfg.TickSpacing)
	rebalanceID := uuid.New().String()

	log := e.logger.With().
		Str("rebalance_id", rebalanceID).
		Uint64("pool_id", uint64(s.cfg.ID)).
		Logger()

	log.Info().
		Int64("tick", tick).
		Int64("new_lower", newLower).
		Int64("new_upper", newUpper).
		Int64("optimal_width", st.OptimalRangeWidth).
		Bool("forced", force).
		Msg("Rebalancing pool")

	moved := 0
	for _, idx := range s.book.ActiveIndexes() {
		pos, err := s.book.At(idx)
		if err != nil {
			return false, err
		}
		if pos.TickLower == newLower && pos.TickUpper == newUpper {
			continue
		}

		if err := e.pool.ApplyLiquidityDelta(s.cfg.ID, pos.TickLower, pos.TickUpper, pos.Liquidity.Neg()); err != nil {
			return false, fmt.Errorf("failed to withdraw position %d: %w", idx, err)
		}
		if err := e.pool.ApplyLiquidityDelta(s.cfg.ID, newLower, newUpper, pos.Liquidity); err != nil {
			// Restore the old range so the ledger and the pool stay in
			// sync. If the restore also fails there is nothing safe left
			// to do but surface both.
			if rbErr := e.pool.ApplyLiquidityDelta(s.cfg.ID, pos.TickLower, pos.TickUpper, pos.Liquidity); rbErr != nil {
				return false, fmt.Errorf("failed to redeposit position %d (rollback also failed: %v): %w", idx, rbErr, err)
			}
			return false, fmt.Errorf("failed to redeposit position %d: %w", idx, err)
		}

		if err := s.book.Reposition(idx, newLower, newUpper, now); err != nil {
			return false, err
		}
		moved++

		e.recorder.Record(events.PositionRebalanced{
			PoolID:   s.cfg.ID,
			Index:    idx,
			OldLower: pos.TickLower,
			OldUpper: pos.TickUpper,
			NewLower: newLower,
			NewUpper: newUpper,
			At:       now,
		})
	}

	st.LastRebalance = now
	st.CurrentRangeWidth = st.OptimalRangeWidth
	st.LastTick = tick
	st.RebalanceCount++
	if st.RebalanceCount > 0 {
		s.analytics.RebalanceEfficiency = st.FeeRevenue.QuoInt64(int64(st.RebalanceCount))
	}
	s.analytics.LastUpdate = now

	log.Info().
		Int("positions_moved", moved).
		Uint64("rebalance_count", st.RebalanceCount).
		Msg("Rebalance complete")

	e.recorder.Record(events.PoolRebalanced{
		RebalanceID:    rebalanceID,
		PoolID:         s.cfg.ID,
		Tick:           tick,
		NewLower:       newLower,
		NewUpper:       newUpper,
		PositionsMoved: moved,
		RebalanceCount: st.RebalanceCount,
		Forced:         force,
		At:             now,
	})

	return moved > 0 || force, nil
}
