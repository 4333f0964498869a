package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	JWT         JWTConfig
	Pricing     PricingConfig
	Chain       ChainConfig
	FrontendURL string
	Environment string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MaxIdle  int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in hours
}

// PricingConfig holds price feed configuration
type PricingConfig struct {
	QuoteURL     string
	CacheTTL     time.Duration
	FetchTimeout time.Duration
}

// ChainConfig holds blockchain RPC endpoints used to confirm transactions
type ChainConfig struct {
	EthereumRPC string
	BSCRPC      string
}

// Load creates a Config from environment variables, trying a .env file first
// for local development. DATABASE_URL has no default: the connection string
// carries credentials and must be supplied externally.
func Load() (*Config, error) {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:      databaseURL,
			MaxConns: getEnvInt("DATABASE_MAX_CONNS", 20),
			MaxIdle:  getEnvInt("DATABASE_MAX_IDLE", 5),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 10),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvInt("JWT_EXPIRATION", 24),
		},
		Pricing: PricingConfig{
			QuoteURL:     getEnv("PRICE_FEED_URL", "https://api.coingecko.com/api/v3/simple/price"),
			CacheTTL:     time.Duration(getEnvInt("PRICE_CACHE_SECONDS", 30)) * time.Second,
			FetchTimeout: time.Duration(getEnvInt("PRICE_FETCH_TIMEOUT_SECONDS", 3)) * time.Second,
		},
		Chain: ChainConfig{
			EthereumRPC: getEnv("ETHEREUM_RPC_URL", ""),
			BSCRPC:      getEnv("BSC_RPC_URL", ""),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
