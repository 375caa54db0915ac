/*

This file contains the market-signal half of the engine: the per-swap
updates that keep a pool's volatility, volume, gas, price-impact and fee
metrics current, plus the swap orchestration entry point.

*/

package engine

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/Ternder001/AutoRebalancingHook/internal/events"
	"github.com/Ternder001/AutoRebalancingHook/internal/fees"
	"github.com/Ternder001/AutoRebalancingHook/internal/market"
	"github.com/Ternder001/AutoRebalancingHook/internal/ranges"
	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// SwapEvent carries the observables of one executed swap into the engine.
type SwapEvent struct {
	// ZeroForOne is the swap direction: true means token0 in, token1 out.
	ZeroForOne bool

	// SpecifiedAmount is the signed user-specified amount of the swap.
	SpecifiedAmount sdkmath.Int

	// Amount0Delta and Amount1Delta are the pool's signed balance changes.
	Amount0Delta sdkmath.Int
	Amount1Delta sdkmath.Int

	// GasPrice is the execution gas price observed for the swap.
	GasPrice uint64
}

// UpdateMarketConditions folds one swap's volume into the windowed total,
// refreshes the volatility EMA from the tick movement since the previous
// update and recomputes the derived range-width recommendation.
func (e *Engine) UpdateMarketConditions(poolID types.PoolID, swapAmount sdkmath.Int) error {
	s, err := e.shardFor(poolID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.updateMarketConditionsLocked(s, swapAmount)
}

func (e *Engine) updateMarketConditionsLocked(s *shard, swapAmount sdkmath.Int) error {
	now := e.clock.Now()
	st := &s.state

	// The volume window is fixed, not sliding. When it has fully elapsed
	// the total resets before this swap is counted, so the new window
	// opens with exactly this swap's volume.
	if now.Sub(st.LastVolumeUpdate) >= e.params.VolumeWindow {
		st.TradingVolume = sdkmath.LegacyZeroDec()
		st.LastVolumeUpdate = now
	}
	st.TradingVolume = st.TradingVolume.Add(sdkmath.LegacyNewDecFromInt(swapAmount.Abs()))

	quote, err := e.pool.CurrentTick(s.cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to read current tick for pool %d: %w", s.cfg.ID, err)
	}

	tickChange := quote.Tick - st.LastTick
	if tickChange < 0 {
		tickChange = -tickChange
	}
	st.PriceVolatilityEMA = market.BlendVolatility(st.PriceVolatilityEMA, tickChange, e.params.VolatilityAlpha)
	st.LastTick = quote.Tick
	st.LastVolatilityUpdate = now

	st.OptimalRangeWidth = ranges.CalculateRangeWidth(st.PriceVolatilityEMA, st.LiquidityDepth)

	an := &s.analytics
	an.TotalVolume = an.TotalVolume.Add(sdkmath.LegacyNewDecFromInt(swapAmount.Abs()))
	an.AverageVolatility = market.TwoPointAverage(an.AverageVolatility, st.PriceVolatilityEMA)
	an.ImpermanentLoss = market.ImpermanentLossEstimate(st.PriceVolatilityEMA)
	an.LastUpdate = now

	e.recorder.Record(events.MarketMetricsUpdated{
		PoolID:         s.cfg.ID,
		Volatility:     st.PriceVolatilityEMA,
		TradingVolume:  st.TradingVolume,
		LiquidityDepth: st.LiquidityDepth,
		At:             now,
	})

	return nil
}

// UpdateMovingAverageGasPrice folds one gas price observation into the
// running mean. The sample counter deliberately wraps on overflow.
func (e *Engine) UpdateMovingAverageGasPrice(poolID types.PoolID, gasPrice uint64) error {
	s, err := e.shardFor(poolID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.updateGasPriceLocked(s, gasPrice)
	return nil
}

func (e *Engine) updateGasPriceLocked(s *shard, gasPrice uint64) {
	st := &s.state
	st.MovingAverageGasPrice = market.IncrementalMean(st.MovingAverageGasPrice, st.MovingAverageGasPriceCount, gasPrice)
	st.MovingAverageGasPriceCount++
}

// UpdatePriceImpact folds one swap's price impact into the running mean.
// The impact compares the user-specified amount against the output-side
// balance delta for the swap's direction; degenerate swaps with a zero leg
// are skipped.
func (e *Engine) UpdatePriceImpact(poolID types.PoolID, zeroForOne bool, specifiedAmount, amount0Delta, amount1Delta sdkmath.Int) error {
	s, err := e.shardFor(poolID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.updatePriceImpactLocked(s, zeroForOne, specifiedAmount, amount0Delta, amount1Delta)
	return nil
}

func (e *Engine) updatePriceImpactLocked(s *shard, zeroForOne bool, specifiedAmount, amount0Delta, amount1Delta sdkmath.Int) {
	outputDelta := amount0Delta
	if zeroForOne {
		outputDelta = amount1Delta
	}

	impact, ok := market.PriceImpact(specifiedAmount, outputDelta)
	if !ok {
		return
	}

	st := &s.state
	st.AveragePriceImpact = market.IncrementalMeanDec(st.AveragePriceImpact, st.PriceImpactCount, impact)
	st.PriceImpactCount++
}

// UpdateFeeRevenue accrues the fee charged on one swap into the pool's
// cumulative fee revenue.
func (e *Engine) UpdateFeeRevenue(poolID types.PoolID, specifiedAmount sdkmath.Int, feePPM uint64) error {
	s, err := e.shardFor(poolID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.updateFeeRevenueLocked(s, specifiedAmount, feePPM)
	return nil
}

func (e *Engine) updateFeeRevenueLocked(s *shard, specifiedAmount sdkmath.Int, feePPM uint64) {
	fee := market.FeeAmount(specifiedAmount, feePPM)
	s.state.FeeRevenue = s.state.FeeRevenue.Add(fee)
	s.analytics.TotalFeeRevenue = s.analytics.TotalFeeRevenue.Add(fee)
}

// ApplyDynamicFee evaluates the fee policy against the pool's current
// signals, stores the result as the fee in force and returns it.
func (e *Engine) ApplyDynamicFee(poolID types.PoolID) (uint64, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.applyDynamicFeeLocked(s), nil
}

func (e *Engine) applyDynamicFeeLocked(s *shard) uint64 {
	st := &s.state
	newFee := fees.DynamicFee(fees.Inputs{
		Volatility:         st.PriceVolatilityEMA,
		TradingVolume:      st.TradingVolume,
		LiquidityDepth:     st.LiquidityDepth,
		AveragePriceImpact: st.AveragePriceImpact,
	})
	if newFee != st.CurrentFee {
		e.recorder.Record(events.FeeAdjusted{
			PoolID: s.cfg.ID,
			OldFee: st.CurrentFee,
			NewFee: newFee,
			At:     e.clock.Now(),
		})
		st.CurrentFee = newFee
	}
	return newFee
}

// HandleSwap runs the full post-swap pipeline for one executed swap:
// market conditions, gas, price impact, the dynamic fee and the fee
// revenue it implies, then an opportunistic rebalance check. The whole
// pipeline runs under the pool's lock, so a concurrent swap on the same
// pool observes either all of this swap's effects or none of them.
//
// A failed rebalance attempt does not fail the swap; it is logged and the
// fee in force is still returned.
func (e *Engine) HandleSwap(poolID types.PoolID, swap SwapEvent) (uint64, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := e.updateMarketConditionsLocked(s, swap.SpecifiedAmount); err != nil {
		return 0, err
	}
	e.updateGasPriceLocked(s, swap.GasPrice)
	e.updatePriceImpactLocked(s, swap.ZeroForOne, swap.SpecifiedAmount, swap.Amount0Delta, swap.Amount1Delta)

	fee := e.applyDynamicFeeLocked(s)
	e.updateFeeRevenueLocked(s, swap.SpecifiedAmount, fee)

	needed, err := e.rebalanceNeededLocked(s)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Uint64("pool_id", uint64(poolID)).
			Msg("Rebalance check failed after swap")
		return fee, nil
	}
	if needed {
		if _, err := e.executeRebalanceLocked(s, false); err != nil {
			e.logger.Warn().
				Err(err).
				Uint64("pool_id", uint64(poolID)).
				Msg("Automatic rebalance failed after swap")
		}
	}

	return fee, nil
}
