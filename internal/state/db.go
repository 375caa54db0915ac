// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS rebalance_events (
			event_id SERIAL PRIMARY KEY,
			rebalance_id VARCHAR(36) NOT NULL,
			event_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			pool_id BIGINT NOT NULL,
			tick BIGINT NOT NULL,
			new_lower BIGINT NOT NULL,
			new_upper BIGINT NOT NULL,
			positions_moved INTEGER NOT NULL,
			rebalance_count BIGINT NOT NULL,
			forced BOOLEAN NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rebalance_events_timestamp ON rebalance_events(event_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_rebalance_events_pool_id ON rebalance_events(pool_id);

		CREATE TABLE IF NOT EXISTS market_samples (
			sample_id SERIAL PRIMARY KEY,
			sample_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			pool_id BIGINT NOT NULL,
			volatility DECIMAL(40, 18) NOT NULL,
			trading_volume DECIMAL(40, 18) NOT NULL,
			liquidity_depth DECIMAL(40, 18) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_market_samples_timestamp ON market_samples(sample_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_market_samples_pool_id ON market_samples(pool_id);

		CREATE TABLE IF NOT EXISTS fee_adjustments (
			adjustment_id SERIAL PRIMARY KEY,
			adjustment_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			pool_id BIGINT NOT NULL,
			old_fee BIGINT NOT NULL,
			new_fee BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_fee_adjustments_timestamp ON fee_adjustments(adjustment_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_fee_adjustments_pool_id ON fee_adjustments(pool_id);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
