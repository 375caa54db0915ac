/*

This file contains an in-memory pool engine used by the sim run mode and by
tests. It tracks per-pool ticks and per-range liquidity so that the
withdraw/deposit pairing of the rebalance executor is observable end to end.

*/

package pool

import (
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

type rangeKey struct {
	lower, upper int64
}

// SimEngine is an in-memory Engine implementation.
type SimEngine struct {
	mu        sync.Mutex
	clock     Clock
	ticks     map[types.PoolID]int64
	liquidity map[types.PoolID]map[rangeKey]sdkmath.Int
}

// NewSimEngine creates an empty simulated pool engine.
func NewSimEngine(clock Clock) *SimEngine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SimEngine{
		clock:     clock,
		ticks:     make(map[types.PoolID]int64),
		liquidity: make(map[types.PoolID]map[rangeKey]sdkmath.Int),
	}
}

// SetTick moves the simulated pool price to the given tick.
func (s *SimEngine) SetTick(poolID types.PoolID, tick int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[poolID] = tick
}

// CurrentTick implements Engine. Unknown pools report tick zero, matching a
// pool engine that has not observed the pool yet.
func (s *SimEngine) CurrentTick(poolID types.PoolID) (TickQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tick := s.ticks[poolID]
	return TickQuote{
		Price:      tickToPrice(tick),
		Tick:       tick,
		ObservedAt: s.clock.Now(),
	}, nil
}

// ApplyLiquidityDelta implements Engine. Withdrawing more liquidity than a
// range holds fails without mutating anything.
func (s *SimEngine) ApplyLiquidityDelta(poolID types.PoolID, tickLower, tickUpper int64, delta sdkmath.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.liquidity[poolID]
	if !ok {
		book = make(map[rangeKey]sdkmath.Int)
		s.liquidity[poolID] = book
	}

	key := rangeKey{lower: tickLower, upper: tickUpper}
	held, ok := book[key]
	if !ok {
		held = sdkmath.ZeroInt()
	}
	next := held.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("range [%d, %d) holds %s, cannot withdraw %s",
			tickLower, tickUpper, held, delta.Abs())
	}
	book[key] = next
	return nil
}

// RangeLiquidity reports the liquidity the simulated engine holds in a
// range. Test helper.
func (s *SimEngine) RangeLiquidity(poolID types.PoolID, tickLower, tickUpper int64) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	book, ok := s.liquidity[poolID]
	if !ok {
		return sdkmath.ZeroInt()
	}
	held, ok := book[rangeKey{lower: tickLower, upper: tickUpper}]
	if !ok {
		return sdkmath.ZeroInt()
	}
	return held
}

// tickToPrice is a coarse stand-in for the 1.0001^tick curve; good enough
// for a quote that only decorates the tick.
func tickToPrice(tick int64) sdkmath.LegacyDec {
	base := sdkmath.LegacyOneDec()
	step := sdkmath.LegacyNewDecWithPrec(1, 4) // 0.0001 per tick
	return base.Add(step.MulInt64(tick))
}

var _ Engine = (*SimEngine)(nil)
