/*

This package contains the hook engine: the orchestrator that owns per-pool
market state, analytics and the position ledger, and coordinates with the
external pool engine.

Every mutation of a pool's state runs under that pool's shard mutex; an
on-chain host gets the same single-writer-per-pool model for free from
atomic transaction execution. Different pools share nothing mutable and
proceed fully in parallel.

*/

package engine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Ternder001/AutoRebalancingHook/internal/access"
	"github.com/Ternder001/AutoRebalancingHook/internal/config"
	"github.com/Ternder001/AutoRebalancingHook/internal/events"
	"github.com/Ternder001/AutoRebalancingHook/internal/fees"
	"github.com/Ternder001/AutoRebalancingHook/internal/ledger"
	"github.com/Ternder001/AutoRebalancingHook/internal/logger"
	"github.com/Ternder001/AutoRebalancingHook/internal/pool"
	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

// shard bundles everything owned by a single pool. The mutex serializes all
// reads and writes of the pool's record.
type shard struct {
	mu        sync.Mutex
	cfg       types.PoolConfig
	state     types.PoolMarketState
	analytics types.PoolAnalytics
	book      *ledger.Book
}

// Engine is the liquidity-management and dynamic-fee engine.
type Engine struct {
	logger   zerolog.Logger
	pool     pool.Engine
	clock    pool.Clock
	recorder events.Recorder
	params   config.EngineParameters
	acl      *access.List

	mu    sync.RWMutex // guards the pools map, not the shards
	pools map[types.PoolID]*shard
}

// Config holds the dependencies for creating a new Engine.
type Config struct {
	PoolEngine pool.Engine
	Clock      pool.Clock
	Recorder   events.Recorder
	Params     config.EngineParameters
	Owner      string
}

// New creates an Engine with dependency injection. PoolEngine and Owner are
// required; Clock and Recorder default to the system clock and a no-op sink.
func New(cfg Config) (*Engine, error) {
	if cfg.PoolEngine == nil {
		return nil, fmt.Errorf("pool engine cannot be nil")
	}
	if cfg.Owner == "" {
		return nil, fmt.Errorf("owner address cannot be empty")
	}
	if cfg.Clock == nil {
		cfg.Clock = pool.SystemClock{}
	}
	if cfg.Recorder == nil {
		cfg.Recorder = events.NopRecorder{}
	}

	e := &Engine{
		logger:   logger.GetForComponent("hook_engine"),
		pool:     cfg.PoolEngine,
		clock:    cfg.Clock,
		recorder: cfg.Recorder,
		params:   cfg.Params,
		acl:      access.New(cfg.Owner),
		pools:    make(map[types.PoolID]*shard),
	}

	e.logger.Info().
		Str("owner", cfg.Owner).
		Msg("Hook engine created")

	return e, nil
}

// Access returns the authorized-rebalancer list.
func (e *Engine) Access() *access.List {
	return e.acl
}

// InitializePool reacts to the pool engine's initialize hook by seeding the
// pool's market state with defaults. The configured base fee must sit
// inside the policy bounds.
func (e *Engine) InitializePool(cfg types.PoolConfig) error {
	if !fees.ValidBaseFee(cfg.BaseFee) {
		return fmt.Errorf("%w: base fee %d outside [%d, %d]",
			types.ErrInvalidFee, cfg.BaseFee, fees.MinFee, fees.MaxFee)
	}
	if cfg.TickSpacing <= 0 {
		return fmt.Errorf("tick spacing must be positive, got %d", cfg.TickSpacing)
	}

	quote, err := e.pool.CurrentTick(cfg.ID)
	if err != nil {
		return fmt.Errorf("failed to read initial tick for pool %d: %w", cfg.ID, err)
	}

	now := e.clock.Now()
	st := types.NewPoolMarketState()
	st.LastTick = quote.Tick
	st.LiquidityDepth = e.params.SeedLiquidityDepth
	st.CurrentRangeWidth = e.params.DefaultRangeWidth
	st.OptimalRangeWidth = e.params.DefaultRangeWidth
	st.CurrentFee = cfg.BaseFee
	st.LastVolatilityUpdate = now
	st.LastVolumeUpdate = now
	st.LastRebalance = now

	an := types.NewPoolAnalytics()
	an.LastUpdate = now

	s := &shard{
		cfg:       cfg,
		state:     st,
		analytics: an,
		book: ledger.NewBook(ledger.Config{
			MaxPositionsPerPool: e.params.MaxPositionsPerPool,
			MinLiquidityAmount:  e.params.MinLiquidityAmount,
		}),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.pools[cfg.ID]; exists {
		return fmt.Errorf("pool %d already registered", cfg.ID)
	}
	e.pools[cfg.ID] = s

	e.logger.Info().
		Uint64("pool_id", uint64(cfg.ID)).
		Int64("tick", quote.Tick).
		Uint64("base_fee", cfg.BaseFee).
		Int64("tick_spacing", cfg.TickSpacing).
		Msg("Pool registered")

	return nil
}

// shardFor resolves a pool's shard.
func (e *Engine) shardFor(poolID types.PoolID) (*shard, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: pool %d", types.ErrPoolNotRegistered, poolID)
	}
	return s, nil
}

// MarketState returns a copy of the pool's market state.
func (e *Engine) MarketState(poolID types.PoolID) (types.PoolMarketState, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return types.PoolMarketState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// PoolConfig returns the static configuration the pool was registered with.
func (e *Engine) PoolConfig(poolID types.PoolID) (types.PoolConfig, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return types.PoolConfig{}, err
	}
	return s.cfg, nil
}

// Analytics returns a copy of the pool's derived statistics.
func (e *Engine) Analytics(poolID types.PoolID) (types.PoolAnalytics, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return types.PoolAnalytics{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analytics, nil
}

// Positions returns a copy of the pool's full position list, tombstones
// included.
func (e *Engine) Positions(poolID types.PoolID) ([]types.Position, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Positions(), nil
}

// PositionIndexes returns the owner's position index list for a pool. The
// list may reference tombstoned positions.
func (e *Engine) PositionIndexes(poolID types.PoolID, owner string) ([]int, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.IndexesOf(owner), nil
}

// DynamicFee evaluates the fee policy against the pool's current signals
// without storing anything.
func (e *Engine) DynamicFee(poolID types.PoolID) (uint64, error) {
	s, err := e.shardFor(poolID)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fees.DynamicFee(fees.Inputs{
		Volatility:         s.state.PriceVolatilityEMA,
		TradingVolume:      s.state.TradingVolume,
		LiquidityDepth:     s.state.LiquidityDepth,
		AveragePriceImpact: s.state.AveragePriceImpact,
	}), nil
}
