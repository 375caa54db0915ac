/*

This file contains the LP position record kept by the position ledger.

Positions live in an append-only list per pool; the list index is the
position's stable identity. Removal never deletes an entry, it only flips
Active to false, and that flip is terminal.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// Position is a single liquidity position in a pool.
type Position struct {
	Owner         string      `json:"owner"`
	Liquidity     sdkmath.Int `json:"liquidity"`
	TickLower     int64       `json:"tick_lower"`
	TickUpper     int64       `json:"tick_upper"`
	EntryTime     time.Time   `json:"entry_time"`
	LastRebalance time.Time   `json:"last_rebalance"`

	// FeesClaimed is the position's cumulative fee entitlement already paid
	// out, in the same fixed-point unit as the pool's FeeRevenue accumulator.
	FeesClaimed sdkmath.LegacyDec `json:"fees_claimed"`

	Active bool `json:"active"`
}
