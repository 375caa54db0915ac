/*

This file adapts the persistence layer to the engine's notification
interface. Persistence is best effort: a failed write is logged and never
propagates back into the engine's critical path.

*/

package state

import (
	"github.com/rs/zerolog"

	"github.com/Ternder001/AutoRebalancingHook/internal/events"
	"github.com/Ternder001/AutoRebalancingHook/internal/logger"
)

// Recorder persists engine notifications to PostgreSQL.
type Recorder struct {
	logger zerolog.Logger
}

// NewRecorder creates a persistence-backed notification sink.
func NewRecorder() *Recorder {
	return &Recorder{logger: logger.GetForComponent("state_recorder")}
}

// Record implements events.Recorder.
func (r *Recorder) Record(ev events.Event) {
	var err error
	switch e := ev.(type) {
	case events.PoolRebalanced:
		err = SaveRebalanceEvent(RebalanceRecord{
			RebalanceID:    e.RebalanceID,
			Timestamp:      e.At,
			PoolID:         uint64(e.PoolID),
			Tick:           e.Tick,
			NewLower:       e.NewLower,
			NewUpper:       e.NewUpper,
			PositionsMoved: e.PositionsMoved,
			RebalanceCount: e.RebalanceCount,
			Forced:         e.Forced,
		})
	case events.MarketMetricsUpdated:
		err = SaveMarketSample(uint64(e.PoolID), e.At,
			e.Volatility.String(), e.TradingVolume.String(), e.LiquidityDepth.String())
	case events.FeeAdjusted:
		err = SaveFeeAdjustment(uint64(e.PoolID), e.At, e.OldFee, e.NewFee)
	default:
		// Position lifecycle notifications stay in memory; the ledger is
		// the source of truth for them.
		return
	}

	if err != nil {
		r.logger.Error().
			Err(err).
			Str("kind", ev.Kind()).
			Uint64("pool_id", uint64(ev.Pool())).
			Msg("Failed to persist event")
	}
}
