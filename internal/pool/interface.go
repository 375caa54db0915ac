package pool

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// TickQuote is the pool engine's view of a pool's current price point.
type TickQuote struct {
	Price      sdkmath.LegacyDec `json:"price"`
	Tick       int64             `json:"tick"`
	ObservedAt time.Time         `json:"observed_at"`
}

// Engine is the hosting pool/exchange engine this core coordinates with.
// It executes the actual swaps and liquidity changes; this core only reads
// ticks and requests liquidity deltas. Calls are synchronous and fail fast,
// with no partial-result semantics.
type Engine interface {
	// CurrentTick returns the pool's current price tick and observation
	// metadata.
	CurrentTick(poolID types.PoolID) (TickQuote, error)

	// ApplyLiquidityDelta adds (positive delta) or withdraws (negative
	// delta) liquidity in the given tick range.
	ApplyLiquidityDelta(poolID types.PoolID, tickLower, tickUpper int64, delta sdkmath.Int) error
}

// Clock is the monotonic wall-clock source used for all window and cooldown
// comparisons.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the OS clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
