/*

This file persists engine notifications for the query surface: completed
rebalances, market samples and fee adjustments.

*/

package state

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// RebalanceRecord is a persisted completed rebalance.
type RebalanceRecord struct {
	EventID        int       `json:"event_id"`
	RebalanceID    string    `json:"rebalance_id"`
	Timestamp      time.Time `json:"timestamp"`
	PoolID         uint64    `json:"pool_id"`
	Tick           int64     `json:"tick"`
	NewLower       int64     `json:"new_lower"`
	NewUpper       int64     `json:"new_upper"`
	PositionsMoved int       `json:"positions_moved"`
	RebalanceCount uint64    `json:"rebalance_count"`
	Forced         bool      `json:"forced"`
}

// SaveRebalanceEvent persists one completed rebalance.
func SaveRebalanceEvent(rec RebalanceRecord) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	insertSQL := `
		INSERT INTO rebalance_events
			(rebalance_id, event_timestamp, pool_id, tick, new_lower, new_upper, positions_moved, rebalance_count, forced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err := DB.Exec(insertSQL,
		rec.RebalanceID, rec.Timestamp, rec.PoolID, rec.Tick,
		rec.NewLower, rec.NewUpper, rec.PositionsMoved, rec.RebalanceCount, rec.Forced)
	if err != nil {
		return fmt.Errorf("failed to save rebalance event: %w", err)
	}

	log.Debug().
		Str("rebalanceID", rec.RebalanceID).
		Uint64("poolID", rec.PoolID).
		Msg("Saved rebalance event")
	return nil
}

// GetRecentRebalances retrieves the most recent rebalances, newest first.
func GetRecentRebalances(limit int) ([]RebalanceRecord, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT event_id, rebalance_id, event_timestamp, pool_id, tick, new_lower, new_upper, positions_moved, rebalance_count, forced
		FROM rebalance_events
		ORDER BY event_timestamp DESC
		LIMIT $1;`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rebalance events: %w", err)
	}
	defer rows.Close()

	var records []RebalanceRecord
	for rows.Next() {
		var rec RebalanceRecord
		if err := rows.Scan(&rec.EventID, &rec.RebalanceID, &rec.Timestamp, &rec.PoolID,
			&rec.Tick, &rec.NewLower, &rec.NewUpper, &rec.PositionsMoved,
			&rec.RebalanceCount, &rec.Forced); err != nil {
			return nil, fmt.Errorf("failed to scan rebalance event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rebalance events: %w", err)
	}

	return records, nil
}

// SaveMarketSample persists one market-conditions observation. Decimal
// values arrive as strings to keep the full 18-digit precision.
func SaveMarketSample(poolID uint64, timestamp time.Time, volatility, tradingVolume, liquidityDepth string) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	insertSQL := `
		INSERT INTO market_samples
			(sample_timestamp, pool_id, volatility, trading_volume, liquidity_depth)
		VALUES ($1, $2, $3, $4, $5);`

	_, err := DB.Exec(insertSQL, timestamp, poolID, volatility, tradingVolume, liquidityDepth)
	if err != nil {
		return fmt.Errorf("failed to save market sample: %w", err)
	}
	return nil
}

// SaveFeeAdjustment persists one dynamic-fee change.
func SaveFeeAdjustment(poolID uint64, timestamp time.Time, oldFee, newFee uint64) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	insertSQL := `
		INSERT INTO fee_adjustments
			(adjustment_timestamp, pool_id, old_fee, new_fee)
		VALUES ($1, $2, $3, $4);`

	_, err := DB.Exec(insertSQL, timestamp, poolID, oldFee, newFee)
	if err != nil {
		return fmt.Errorf("failed to save fee adjustment: %w", err)
	}
	return nil
}

// PoolActivitySummary aggregates a pool's persisted activity.
type PoolActivitySummary struct {
	PoolID          uint64    `json:"pool_id"`
	RebalanceCount  int       `json:"rebalance_count"`
	FeeAdjustments  int       `json:"fee_adjustments"`
	SampleCount     int       `json:"sample_count"`
	LastRebalanceAt time.Time `json:"last_rebalance_at"`
}

// GetPoolActivitySummary aggregates persisted activity for one pool.
func GetPoolActivitySummary(poolID uint64) (PoolActivitySummary, error) {
	summary := PoolActivitySummary{PoolID: poolID}
	if DB == nil {
		return summary, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM rebalance_events WHERE pool_id = $1),
			(SELECT COUNT(*) FROM fee_adjustments WHERE pool_id = $1),
			(SELECT COUNT(*) FROM market_samples WHERE pool_id = $1),
			(SELECT COALESCE(MAX(event_timestamp), 'epoch'::timestamptz) FROM rebalance_events WHERE pool_id = $1);`

	row := DB.QueryRow(query, poolID)
	err := row.Scan(&summary.RebalanceCount, &summary.FeeAdjustments, &summary.SampleCount, &summary.LastRebalanceAt)
	if err != nil {
		return summary, fmt.Errorf("failed to get pool activity summary: %w", err)
	}

	return summary, nil
}
