package main

import (
	"math/rand"
	"os"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Ternder001/AutoRebalancingHook/internal/config"
	"github.com/Ternder001/AutoRebalancingHook/internal/engine"
	"github.com/Ternder001/AutoRebalancingHook/internal/events"
	"github.com/Ternder001/AutoRebalancingHook/internal/logger"
	"github.com/Ternder001/AutoRebalancingHook/internal/pool"
	"github.com/Ternder001/AutoRebalancingHook/internal/state"
	"github.com/Ternder001/AutoRebalancingHook/internal/types"
	"github.com/Ternder001/AutoRebalancingHook/internal/web"
)

const (
	SIM_SWAP_INTERVAL = 2 * time.Second
	SIM_POOL_ID       = types.PoolID(1)
)

// main is the entry point for the hook engine daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Auto-rebalancing hook engine starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Pool Engine Initialization (with Safety Switch) ---
	var poolEngine pool.Engine
	var simEngine *pool.SimEngine

	if config.RunMode == "sim" {
		log.Warn().Msg("Initializing hook engine in SIM mode. Swaps are synthetic.")
		simEngine = pool.NewSimEngine(nil)
		poolEngine = simEngine
	} else {
		log.Fatal().Msg("RUN_MODE is not set to 'sim'. Halting: no live pool engine adapter is wired yet. Set RUN_MODE=sim to run against the in-memory engine.")
	}

	// --- 3. Create Engine Instance with Dependency Injection ---
	eng, err := engine.New(engine.Config{
		PoolEngine: poolEngine,
		Recorder: events.MultiRecorder{
			events.NewLogRecorder(logger.GetForComponent("events")),
			state.NewRecorder(),
		},
		Params: config.DefaultEngineParameters,
		Owner:  config.OwnerAddress,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create hook engine")
	}

	log.Info().Msg("Hook engine created successfully")

	// --- 4. Start Web Server ---
	webServer := web.NewWebServer(eng, config.WebPort)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting query API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Register the Simulated Pool and Run the Feed ---
	if err := eng.InitializePool(types.PoolConfig{
		ID:          SIM_POOL_ID,
		TickSpacing: 10,
		BaseFee:     3000,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to register simulated pool")
	}

	log.Info().Str("interval", SIM_SWAP_INTERVAL.String()).Msg("Starting synthetic swap feed")
	runSimFeed(eng, simEngine)
}

// runSimFeed drives the engine with a random-walk market indefinitely.
func runSimFeed(eng *engine.Engine, sim *pool.SimEngine) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	tick := int64(0)

	ticker := time.NewTicker(SIM_SWAP_INTERVAL)
	defer ticker.Stop()

	for range ticker.C {
		// Random-walk the pool tick, occasionally jumping.
		step := int64(rng.Intn(21)) - 10
		if rng.Intn(50) == 0 {
			step *= 25
		}
		tick += step
		sim.SetTick(SIM_POOL_ID, tick)

		amountIn := sdkmath.NewInt(int64(rng.Intn(5000) + 100))
		amountOut := amountIn.MulRaw(99).QuoRaw(100)
		zeroForOne := rng.Intn(2) == 0

		swap := engine.SwapEvent{
			ZeroForOne:      zeroForOne,
			SpecifiedAmount: amountIn,
			GasPrice:        uint64(rng.Intn(100) + 20),
		}
		if zeroForOne {
			swap.Amount0Delta = amountIn
			swap.Amount1Delta = amountOut.Neg()
		} else {
			swap.Amount0Delta = amountOut.Neg()
			swap.Amount1Delta = amountIn
		}

		fee, err := eng.HandleSwap(SIM_POOL_ID, swap)
		if err != nil {
			log.Error().Err(err).Msg("Synthetic swap failed")
			continue
		}
		log.Debug().
			Int64("tick", tick).
			Uint64("fee", fee).
			Msg("Synthetic swap processed")
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
