package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DatabasePath string

	// External collaborators
	PriceFeedURL string
	LedgerURL    string

	// Rebalancing engine
	TreasuryAccount string
	MaxQuoteAge     time.Duration
	QuoteTimeout    time.Duration
	BatchWorkers    int
	RebalanceCron   string // empty disables the scheduled cycle

	// Access control
	OperatorTokens []string
	AdminTokens    []string
	StartPaused    bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/rebalancer.db"),
		PriceFeedURL:    getEnv("PRICE_FEED_URL", "http://localhost:9101"),
		LedgerURL:       getEnv("LEDGER_URL", "http://localhost:9102"),
		TreasuryAccount: getEnv("TREASURY_ACCOUNT", ""),
		MaxQuoteAge:     time.Duration(getEnvAsInt("MAX_QUOTE_AGE_SECONDS", 300)) * time.Second,
		QuoteTimeout:    time.Duration(getEnvAsInt("QUOTE_TIMEOUT_SECONDS", 10)) * time.Second,
		BatchWorkers:    getEnvAsInt("BATCH_WORKERS", 4),
		RebalanceCron:   getEnv("REBALANCE_CRON", ""),
		OperatorTokens:  getEnvAsList("OPERATOR_TOKENS"),
		AdminTokens:     getEnvAsList("ADMIN_TOKENS"),
		StartPaused:     getEnvAsBool("START_PAUSED", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.TreasuryAccount == "" {
		return fmt.Errorf("TREASURY_ACCOUNT is required")
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}
	if c.MaxQuoteAge <= 0 {
		return fmt.Errorf("MAX_QUOTE_AGE_SECONDS must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
