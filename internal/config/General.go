package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// RunMode selects how the daemon drives the engine: "sim" runs the
	// in-memory pool engine with a synthetic market feed. Anything else
	// halts at startup; a live deployment must wire a real pool engine
	// adapter first.
	RunMode string

	// OwnerAddress is the bootstrap authorized rebalancer.
	OwnerAddress string

	// WebPort is the port the HTTP query surface listens on.
	WebPort string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. RUN_MODE and OWNER_ADDRESS are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	RunMode, err = getEnv("RUN_MODE")
	if err != nil {
		return err
	}

	OwnerAddress, err = getEnv("OWNER_ADDRESS")
	if err != nil {
		return err
	}

	WebPort = os.Getenv("WEB_PORT")
	if WebPort == "" {
		WebPort = "8080"
	}

	log.Debug().
		Str("RunMode", RunMode).
		Str("OwnerAddress", OwnerAddress).
		Str("WebPort", WebPort).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// GetEnvAsInt retrieves an environment variable as an int with a default.
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
