package engine

import (
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/Ternder001/AutoRebalancingHook/internal/config"
	"github.com/Ternder001/AutoRebalancingHook/internal/events"
	"github.com/Ternder001/AutoRebalancingHook/internal/pool"
	"github.com/Ternder001/AutoRebalancingHook/internal/types"
)

const (
	testPool  = types.PoolID(1)
	testOwner = "owner"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// captureRecorder collects every event for assertions.
type captureRecorder struct {
	events []events.Event
}

func (r *captureRecorder) Record(ev events.Event) {
	r.events = append(r.events, ev)
}

func (r *captureRecorder) ofKind(kind string) []events.Event {
	var out []events.Event
	for _, ev := range r.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

type testFixture struct {
	eng      *Engine
	sim      *pool.SimEngine
	clock    *fakeClock
	recorder *captureRecorder
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	clock := newFakeClock()
	sim := pool.NewSimEngine(clock)
	recorder := &captureRecorder{}

	eng, err := New(Config{
		PoolEngine: sim,
		Clock:      clock,
		Recorder:   recorder,
		Params:     config.DefaultEngineParameters,
		Owner:      testOwner,
	})
	require.NoError(t, err)

	sim.SetTick(testPool, 100)
	require.NoError(t, eng.InitializePool(types.PoolConfig{
		ID:          testPool,
		TickSpacing: 10,
		BaseFee:     3000,
	}))

	return &testFixture{eng: eng, sim: sim, clock: clock, recorder: recorder}
}

func TestNewRequiresPoolEngineAndOwner(t *testing.T) {
	_, err := New(Config{Owner: testOwner})
	require.Error(t, err)

	_, err = New(Config{PoolEngine: pool.NewSimEngine(nil)})
	require.Error(t, err)
}

func TestInitializePoolRejectsInvalidBaseFee(t *testing.T) {
	f := newTestFixture(t)

	err := f.eng.InitializePool(types.PoolConfig{ID: 2, TickSpacing: 10, BaseFee: 400})
	require.ErrorIs(t, err, types.ErrInvalidFee)

	err = f.eng.InitializePool(types.PoolConfig{ID: 2, TickSpacing: 10, BaseFee: 20000})
	require.ErrorIs(t, err, types.ErrInvalidFee)
}

func TestInitializePoolRejectsDuplicate(t *testing.T) {
	f := newTestFixture(t)

	err := f.eng.InitializePool(types.PoolConfig{ID: testPool, TickSpacing: 10, BaseFee: 3000})
	require.Error(t, err)
}

func TestInitializePoolSeedsState(t *testing.T) {
	f := newTestFixture(t)

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, int64(100), st.LastTick)
	require.Equal(t, uint64(3000), st.CurrentFee)
	require.Equal(t, int64(60), st.CurrentRangeWidth)
	require.Equal(t, sdkmath.LegacyNewDec(1000), st.LiquidityDepth)
	require.True(t, st.PriceVolatilityEMA.IsZero())
}

func TestUnknownPoolIsRejectedEverywhere(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.eng.MarketState(99)
	require.ErrorIs(t, err, types.ErrPoolNotRegistered)

	err = f.eng.UpdateMarketConditions(99, sdkmath.NewInt(100))
	require.ErrorIs(t, err, types.ErrPoolNotRegistered)

	_, err = f.eng.CreatePosition(99, "alice", -60, 60, sdkmath.NewInt(5000))
	require.ErrorIs(t, err, types.ErrPoolNotRegistered)

	_, err = f.eng.ManualRebalance(99, testOwner)
	require.ErrorIs(t, err, types.ErrPoolNotRegistered)
}

func TestVolatilityEMASeedsThenBlends(t *testing.T) {
	f := newTestFixture(t)

	// First observed movement seeds the EMA directly.
	f.sim.SetTick(testPool, 150)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(100)))

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(50), st.PriceVolatilityEMA)
	require.Equal(t, int64(150), st.LastTick)

	// Second movement blends: 0.2*10 + 0.8*50 = 42.
	f.sim.SetTick(testPool, 160)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(100)))

	st, err = f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(42), st.PriceVolatilityEMA)
}

func TestVolumeWindowResetsBeforeCounting(t *testing.T) {
	f := newTestFixture(t)

	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(500)))
	f.clock.Advance(30 * time.Minute)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(200)))

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(700), st.TradingVolume)

	// The window opened at pool initialization; one more half hour fully
	// elapses it, so the next swap opens a fresh window alone.
	f.clock.Advance(31 * time.Minute)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(300)))

	st, err = f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(300), st.TradingVolume)
}

func TestGasPriceIncrementalMean(t *testing.T) {
	f := newTestFixture(t)

	require.NoError(t, f.eng.UpdateMovingAverageGasPrice(testPool, 40))
	require.NoError(t, f.eng.UpdateMovingAverageGasPrice(testPool, 60))

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, uint64(50), st.MovingAverageGasPrice)
	require.Equal(t, uint64(2), st.MovingAverageGasPriceCount)
}

func TestPriceImpactUsesDirectionalOutputLeg(t *testing.T) {
	f := newTestFixture(t)

	// zeroForOne: token1 is the output leg. |{-990}|/1000 = 0.99.
	require.NoError(t, f.eng.UpdatePriceImpact(testPool, true,
		sdkmath.NewInt(1000), sdkmath.NewInt(1000), sdkmath.NewInt(-990)))

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDecWithPrec(99, 2), st.AveragePriceImpact)
	require.Equal(t, uint64(1), st.PriceImpactCount)

	// Degenerate swaps with a zero output leg are skipped entirely.
	require.NoError(t, f.eng.UpdatePriceImpact(testPool, true,
		sdkmath.NewInt(1000), sdkmath.NewInt(1000), sdkmath.ZeroInt()))

	st, err = f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.PriceImpactCount)
}

func TestApplyDynamicFeeStoresAndNotifies(t *testing.T) {
	f := newTestFixture(t)

	// Push volatility past the ceiling.
	f.sim.SetTick(testPool, 1500)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(100)))

	fee, err := f.eng.ApplyDynamicFee(testPool)
	require.NoError(t, err)
	require.Equal(t, uint64(10000), fee)

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, uint64(10000), st.CurrentFee)

	adjusted := f.recorder.ofKind("fee_adjusted")
	require.Len(t, adjusted, 1)
	ev := adjusted[0].(events.FeeAdjusted)
	require.Equal(t, uint64(3000), ev.OldFee)
	require.Equal(t, uint64(10000), ev.NewFee)

	// Re-applying without a signal change is silent.
	_, err = f.eng.ApplyDynamicFee(testPool)
	require.NoError(t, err)
	require.Len(t, f.recorder.ofKind("fee_adjusted"), 1)
}

func TestCreatePositionDepositsAndTracksDepth(t *testing.T) {
	f := newTestFixture(t)

	idx, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	require.Equal(t, sdkmath.NewInt(5000), f.sim.RangeLiquidity(testPool, -60, 60))

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(6000), st.LiquidityDepth) // 1000 seed + 5000

	created := f.recorder.ofKind("position_created")
	require.Len(t, created, 1)
}

func TestCreatePositionRejectsDust(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(999))
	require.ErrorIs(t, err, types.ErrInsufficientLiquidityAmount)
}

func TestCreatePositionRejectsInvertedRange(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.eng.CreatePosition(testPool, "alice", 60, -60, sdkmath.NewInt(5000))
	require.Error(t, err)
}

func TestCreatePositionBlockedByVolatilityCeiling(t *testing.T) {
	f := newTestFixture(t)

	f.sim.SetTick(testPool, 5000)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(100)))

	_, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.ErrorIs(t, err, types.ErrVolatilityTooHigh)
}

func TestRemovePositionSettlesAndTombstones(t *testing.T) {
	f := newTestFixture(t)

	idx, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)

	// Accrue some fee revenue for the settlement to pay out.
	require.NoError(t, f.eng.UpdateFeeRevenue(testPool, sdkmath.NewInt(1_000_000), 3000))

	liquidity, err := f.eng.RemovePosition(testPool, "alice", idx)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(5000), liquidity)

	require.True(t, sdkmath.ZeroInt().Equal(f.sim.RangeLiquidity(testPool, -60, 60)))

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(1000), st.LiquidityDepth) // seed remains

	positions, err := f.eng.Positions(testPool)
	require.NoError(t, err)
	require.False(t, positions[idx].Active)

	require.Len(t, f.recorder.ofKind("fees_collected"), 1)
	require.Len(t, f.recorder.ofKind("position_removed"), 1)

	// The tombstone is terminal.
	_, err = f.eng.RemovePosition(testPool, "alice", idx)
	require.ErrorIs(t, err, types.ErrPositionNotActive)
}

func TestLiquidityDepthFloorsAtZero(t *testing.T) {
	clock := newFakeClock()
	sim := pool.NewSimEngine(clock)

	params := config.DefaultEngineParameters
	params.SeedLiquidityDepth = sdkmath.LegacyZeroDec()

	eng, err := New(Config{
		PoolEngine: sim,
		Clock:      clock,
		Params:     params,
		Owner:      testOwner,
	})
	require.NoError(t, err)
	require.NoError(t, eng.InitializePool(types.PoolConfig{ID: testPool, TickSpacing: 10, BaseFee: 3000}))

	idx, err := eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)

	_, err = eng.RemovePosition(testPool, "alice", idx)
	require.NoError(t, err)

	st, err := eng.MarketState(testPool)
	require.NoError(t, err)
	require.True(t, st.LiquidityDepth.IsZero())
	require.False(t, st.LiquidityDepth.IsNegative())
}

func TestRemovePositionRequiresOwnership(t *testing.T) {
	f := newTestFixture(t)

	idx, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)

	_, err = f.eng.RemovePosition(testPool, "mallory", idx)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = f.eng.RemovePosition(testPool, "alice", 42)
	require.ErrorIs(t, err, types.ErrPositionNotFound)
}

func TestCollectFeesIsMonotonic(t *testing.T) {
	f := newTestFixture(t)

	idx, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)

	require.NoError(t, f.eng.UpdateFeeRevenue(testPool, sdkmath.NewInt(1_000_000), 3000))

	first, err := f.eng.CollectFees(testPool, "alice", idx)
	require.NoError(t, err)
	require.True(t, first.IsPositive())

	// Nothing new accrued: the second claim pays zero.
	second, err := f.eng.CollectFees(testPool, "alice", idx)
	require.NoError(t, err)
	require.True(t, second.IsZero())

	require.Len(t, f.recorder.ofKind("fees_collected"), 1)
}

func TestManualRebalanceRequiresAuthorization(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.eng.ManualRebalance(testPool, "stranger")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	// Extending the authorized set opens the door.
	require.NoError(t, f.eng.Access().Add(testOwner, "keeper"))
	f.clock.Advance(31 * time.Minute)
	_, err = f.eng.ManualRebalance(testPool, "keeper")
	require.NoError(t, err)
}

func TestManualRebalanceEnforcesCooldown(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.eng.ManualRebalance(testPool, testOwner)
	require.ErrorIs(t, err, types.ErrRebalanceCooldownNotElapsed)

	f.clock.Advance(31 * time.Minute)
	_, err = f.eng.ManualRebalance(testPool, testOwner)
	require.NoError(t, err)

	// The clock restarts with the completed rebalance.
	_, err = f.eng.ManualRebalance(testPool, testOwner)
	require.ErrorIs(t, err, types.ErrRebalanceCooldownNotElapsed)
}

func TestRebalanceMovesPositionsToTargetRange(t *testing.T) {
	f := newTestFixture(t)

	idx, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)

	// tick=100, width=60, spacing=10: target is [70, 140).
	rebalanced, err := f.eng.ForceRebalance(testPool)
	require.NoError(t, err)
	require.True(t, rebalanced)

	require.True(t, sdkmath.ZeroInt().Equal(f.sim.RangeLiquidity(testPool, -60, 60)))
	require.Equal(t, sdkmath.NewInt(5000), f.sim.RangeLiquidity(testPool, 70, 140))

	positions, err := f.eng.Positions(testPool)
	require.NoError(t, err)
	require.Equal(t, int64(70), positions[idx].TickLower)
	require.Equal(t, int64(140), positions[idx].TickUpper)

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.RebalanceCount)
	require.Equal(t, st.OptimalRangeWidth, st.CurrentRangeWidth)

	require.Len(t, f.recorder.ofKind("position_rebalanced"), 1)
	require.Len(t, f.recorder.ofKind("pool_rebalanced"), 1)
}

func TestForceRebalanceBypassesCooldown(t *testing.T) {
	f := newTestFixture(t)

	rebalanced, err := f.eng.ForceRebalance(testPool)
	require.NoError(t, err)
	require.True(t, rebalanced)

	rebalanced, err = f.eng.ForceRebalance(testPool)
	require.NoError(t, err)
	require.True(t, rebalanced)
}

func TestCheckRebalancingNeeded(t *testing.T) {
	f := newTestFixture(t)

	// Within cooldown nothing is needed, whatever the signals say.
	needed, err := f.eng.CheckRebalancingNeeded(testPool)
	require.NoError(t, err)
	require.False(t, needed)

	// Cooldown elapsed: the seeded width (60) no longer matches the calm
	// market optimum (5) once conditions have been observed.
	f.clock.Advance(31 * time.Minute)
	f.sim.SetTick(testPool, 110)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(100)))

	needed, err = f.eng.CheckRebalancingNeeded(testPool)
	require.NoError(t, err)
	require.True(t, needed)
}

func TestCheckRebalancingNeededDrift(t *testing.T) {
	f := newTestFixture(t)

	// Sync widths first so only drift can trigger.
	_, err := f.eng.ForceRebalance(testPool)
	require.NoError(t, err)
	f.clock.Advance(31 * time.Minute)

	needed, err := f.eng.CheckRebalancingNeeded(testPool)
	require.NoError(t, err)
	require.False(t, needed)

	// Any tick movement beyond 5% of the width counts as drift.
	f.sim.SetTick(testPool, 130)
	needed, err = f.eng.CheckRebalancingNeeded(testPool)
	require.NoError(t, err)
	require.True(t, needed)
}

// failingPoolEngine refuses deposits into one specific range, leaving
// everything else to the wrapped engine.
type failingPoolEngine struct {
	*pool.SimEngine
	failLower int64
	failUpper int64
}

func (f *failingPoolEngine) ApplyLiquidityDelta(poolID types.PoolID, tickLower, tickUpper int64, delta sdkmath.Int) error {
	if tickLower == f.failLower && tickUpper == f.failUpper && delta.IsPositive() {
		return errors.New("deposit refused")
	}
	return f.SimEngine.ApplyLiquidityDelta(poolID, tickLower, tickUpper, delta)
}

func TestRebalanceRollsBackFailedDeposit(t *testing.T) {
	clock := newFakeClock()
	sim := pool.NewSimEngine(clock)
	// tick=100, width=60, spacing=10: the target range is [70, 140).
	failing := &failingPoolEngine{SimEngine: sim, failLower: 70, failUpper: 140}

	eng, err := New(Config{
		PoolEngine: failing,
		Clock:      clock,
		Params:     config.DefaultEngineParameters,
		Owner:      testOwner,
	})
	require.NoError(t, err)

	sim.SetTick(testPool, 100)
	require.NoError(t, eng.InitializePool(types.PoolConfig{ID: testPool, TickSpacing: 10, BaseFee: 3000}))

	idx, err := eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)

	_, err = eng.ForceRebalance(testPool)
	require.Error(t, err)

	// The withdraw leg was rolled back: liquidity is back in the old
	// range and the ledger still points at it.
	require.Equal(t, sdkmath.NewInt(5000), sim.RangeLiquidity(testPool, -60, 60))

	positions, err := eng.Positions(testPool)
	require.NoError(t, err)
	require.Equal(t, int64(-60), positions[idx].TickLower)
	require.Equal(t, int64(60), positions[idx].TickUpper)
	require.True(t, positions[idx].Active)
}

func TestHandleSwapRunsFullPipeline(t *testing.T) {
	f := newTestFixture(t)

	f.sim.SetTick(testPool, 1500)
	fee, err := f.eng.HandleSwap(testPool, SwapEvent{
		ZeroForOne:      true,
		SpecifiedAmount: sdkmath.NewInt(1000),
		Amount0Delta:    sdkmath.NewInt(1000),
		Amount1Delta:    sdkmath.NewInt(-990),
		GasPrice:        50,
	})
	require.NoError(t, err)

	// The tick jump seeds volatility at 1400, past the ceiling.
	require.Equal(t, uint64(10000), fee)

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(1400), st.PriceVolatilityEMA)
	require.Equal(t, sdkmath.LegacyNewDec(1000), st.TradingVolume)
	require.Equal(t, uint64(50), st.MovingAverageGasPrice)
	require.Equal(t, uint64(10000), st.CurrentFee)
	// 1000 * 10000 / 1_000_000 = 10
	require.Equal(t, sdkmath.LegacyNewDec(10), st.FeeRevenue)

	require.Len(t, f.recorder.ofKind("market_metrics_updated"), 1)
	require.Len(t, f.recorder.ofKind("fee_adjusted"), 1)
}

func TestHandleSwapTriggersAutoRebalance(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.eng.CreatePosition(testPool, "alice", -60, 60, sdkmath.NewInt(5000))
	require.NoError(t, err)

	// Past the cooldown a calm swap still exposes the width mismatch
	// between the seeded 60 and the calm-market optimum.
	f.clock.Advance(31 * time.Minute)
	f.sim.SetTick(testPool, 110)

	_, err = f.eng.HandleSwap(testPool, SwapEvent{
		ZeroForOne:      true,
		SpecifiedAmount: sdkmath.NewInt(500),
		Amount0Delta:    sdkmath.NewInt(500),
		Amount1Delta:    sdkmath.NewInt(-495),
		GasPrice:        30,
	})
	require.NoError(t, err)

	require.Len(t, f.recorder.ofKind("pool_rebalanced"), 1)

	st, err := f.eng.MarketState(testPool)
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.RebalanceCount)
}

func TestAnalyticsAggregation(t *testing.T) {
	f := newTestFixture(t)

	f.sim.SetTick(testPool, 150)
	require.NoError(t, f.eng.UpdateMarketConditions(testPool, sdkmath.NewInt(500)))
	require.NoError(t, f.eng.UpdateFeeRevenue(testPool, sdkmath.NewInt(1_000_000), 3000))

	an, err := f.eng.Analytics(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(500), an.TotalVolume)
	require.Equal(t, sdkmath.LegacyNewDec(3000), an.TotalFeeRevenue)
	// 2-point average of 0 and the seeded EMA 50.
	require.Equal(t, sdkmath.LegacyNewDec(25), an.AverageVolatility)
	// 50^2/10000 = 0.25
	require.Equal(t, sdkmath.LegacyNewDecWithPrec(25, 2), an.ImpermanentLoss)

	// Rebalance efficiency is revenue per completed rebalance.
	_, err = f.eng.ForceRebalance(testPool)
	require.NoError(t, err)

	an, err = f.eng.Analytics(testPool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.LegacyNewDec(3000), an.RebalanceEfficiency)
}
