package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Ternder001/AutoRebalancingHook/internal/engine"
	"github.com/Ternder001/AutoRebalancingHook/internal/logger"
	"github.com/Ternder001/AutoRebalancingHook/internal/state"
	"github.com/Ternder001/AutoRebalancingHook/internal/types"
	"github.com/Ternder001/AutoRebalancingHook/internal/utils"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the engine's per-pool state over HTTP.
type WebServer struct {
	router *mux.Router
	engine *engine.Engine
	port   string
}

// NewWebServer creates a new web server instance
func NewWebServer(eng *engine.Engine, port string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		engine: eng,
		port:   port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pools/{id}/state", ws.handleGetPoolState).Methods("GET")
	api.HandleFunc("/pools/{id}/analytics", ws.handleGetPoolAnalytics).Methods("GET")
	api.HandleFunc("/pools/{id}/fee", ws.handleGetPoolFee).Methods("GET")
	api.HandleFunc("/pools/{id}/positions", ws.handleGetPoolPositions).Methods("GET")
	api.HandleFunc("/pools/{id}/positions/{owner}", ws.handleGetOwnerPositions).Methods("GET")
	api.HandleFunc("/pools/{id}/rebalance", ws.handlePostRebalance).Methods("POST")
	api.HandleFunc("/pools/{id}/activity", ws.handleGetPoolActivity).Methods("GET")
	api.HandleFunc("/rebalances", ws.handleGetRebalances).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// poolIDFromRequest parses the pool ID path variable.
func poolIDFromRequest(r *http.Request) (types.PoolID, error) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return types.PoolID(id), nil
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "auto-rebalancing-hook",
			"version": "1.0.0",
		},
		"database_healthy": dbHealthy,
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetPoolState returns a pool's live market state
func (ws *WebServer) handleGetPoolState(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	st, err := ws.engine.MarketState(poolID)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not registered")
		return
	}

	response := map[string]interface{}{
		"pool_id":              poolID,
		"last_tick":            st.LastTick,
		"volatility":           utils.DecToDisplay(st.PriceVolatilityEMA),
		"trading_volume":       utils.DecToDisplay(st.TradingVolume),
		"liquidity_depth":      utils.DecToDisplay(st.LiquidityDepth),
		"fee_revenue":          utils.DecToDisplay(st.FeeRevenue),
		"average_price_impact": utils.DecToDisplay(st.AveragePriceImpact),
		"average_gas_price":    st.MovingAverageGasPrice,
		"current_fee":          st.CurrentFee,
		"current_range_width":  st.CurrentRangeWidth,
		"optimal_range_width":  st.OptimalRangeWidth,
		"rebalance_count":      st.RebalanceCount,
		"last_rebalance":       st.LastRebalance,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPoolAnalytics returns a pool's aggregated statistics
func (ws *WebServer) handleGetPoolAnalytics(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	an, err := ws.engine.Analytics(poolID)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not registered")
		return
	}

	response := map[string]interface{}{
		"pool_id":              poolID,
		"total_volume":         utils.DecToDisplay(an.TotalVolume),
		"total_fee_revenue":    utils.DecToDisplay(an.TotalFeeRevenue),
		"average_volatility":   utils.DecToDisplay(an.AverageVolatility),
		"rebalance_efficiency": utils.DecToDisplay(an.RebalanceEfficiency),
		"impermanent_loss":     utils.DecToDisplay(an.ImpermanentLoss),
		"last_update":          an.LastUpdate,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPoolFee returns the fee the policy would charge right now
func (ws *WebServer) handleGetPoolFee(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	fee, err := ws.engine.DynamicFee(poolID)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not registered")
		return
	}

	response := map[string]interface{}{
		"pool_id":   poolID,
		"fee_ppm":   fee,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPoolPositions returns a pool's full position list
func (ws *WebServer) handleGetPoolPositions(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	positions, err := ws.engine.Positions(poolID)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not registered")
		return
	}

	response := map[string]interface{}{
		"pool_id":   poolID,
		"positions": renderPositions(positions),
		"count":     len(positions),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetOwnerPositions returns one owner's position indexes and entries
func (ws *WebServer) handleGetOwnerPositions(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}
	owner := mux.Vars(r)["owner"]

	indexes, err := ws.engine.PositionIndexes(poolID, owner)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not registered")
		return
	}
	positions, err := ws.engine.Positions(poolID)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not registered")
		return
	}

	owned := make([]map[string]interface{}, 0, len(indexes))
	for _, idx := range indexes {
		if idx < 0 || idx >= len(positions) {
			continue
		}
		entry := renderPosition(positions[idx])
		entry["index"] = idx
		owned = append(owned, entry)
	}

	response := map[string]interface{}{
		"pool_id":   poolID,
		"owner":     owner,
		"indexes":   indexes,
		"positions": owned,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handlePostRebalance triggers a rebalance on behalf of the caller
// identified by the "caller" query parameter.
func (ws *WebServer) handlePostRebalance(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	caller := r.URL.Query().Get("caller")
	if caller == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Missing caller parameter")
		return
	}

	rebalanced, err := ws.engine.ManualRebalance(poolID, caller)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrUnauthorized):
			ws.writeErrorResponse(w, http.StatusForbidden, "Caller is not an authorized rebalancer")
		case errors.Is(err, types.ErrRebalanceCooldownNotElapsed):
			ws.writeErrorResponse(w, http.StatusConflict, "Rebalance cooldown has not elapsed")
		case errors.Is(err, types.ErrPoolNotRegistered):
			ws.writeErrorResponse(w, http.StatusNotFound, "Pool not registered")
		default:
			webLogger.Error().Err(err).Uint64("poolId", uint64(poolID)).Msg("Manual rebalance failed")
			ws.writeErrorResponse(w, http.StatusInternalServerError, "Rebalance failed")
		}
		return
	}

	response := map[string]interface{}{
		"pool_id":    poolID,
		"rebalanced": rebalanced,
		"timestamp":  time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPoolActivity returns a pool's persisted activity summary
func (ws *WebServer) handleGetPoolActivity(w http.ResponseWriter, r *http.Request) {
	poolID, err := poolIDFromRequest(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool ID")
		return
	}

	summary, err := state.GetPoolActivitySummary(uint64(poolID))
	if err != nil {
		webLogger.Error().Err(err).Uint64("poolId", uint64(poolID)).Msg("Failed to get pool activity")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve pool activity")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// handleGetRebalances returns recent rebalances across all pools
func (ws *WebServer) handleGetRebalances(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	records, err := state.GetRecentRebalances(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent rebalances")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve rebalances")
		return
	}

	response := map[string]interface{}{
		"rebalances": records,
		"count":      len(records),
		"limit":      limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

func renderPosition(p types.Position) map[string]interface{} {
	return map[string]interface{}{
		"owner":          p.Owner,
		"liquidity":      utils.IntToDisplay(p.Liquidity),
		"tick_lower":     p.TickLower,
		"tick_upper":     p.TickUpper,
		"entry_time":     p.EntryTime,
		"last_rebalance": p.LastRebalance,
		"fees_claimed":   utils.DecToDisplay(p.FeesClaimed),
		"active":         p.Active,
	}
}

func renderPositions(positions []types.Position) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(positions))
	for i, p := range positions {
		entry := renderPosition(p)
		entry["index"] = i
		out = append(out, entry)
	}
	return out
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
