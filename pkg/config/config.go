package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional, only needed for Postgres-backed series)
	Database DatabaseConfig

	// Redis (optional series cache)
	Redis RedisConfig

	// Hedge engine defaults
	Hedge HedgeConfig

	// Implied vol solver defaults
	Solver SolverConfig

	// Strike skew worker pool
	SkewWorkers int

	// API
	APIRateLimit      float64 // requests per second
	SeriesRefreshCron string

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// HedgeConfig holds the default market parameters of a portfolio
type HedgeConfig struct {
	Basis    float64 // trading days per year
	Rate     float64
	Dividend float64
	Strike   float64
}

// SolverConfig holds the default bisection bracket and tolerances
type SolverConfig struct {
	Tol       float64
	Precision float64
	VLow      float64
	VHigh     float64
	MaxIter   int
}

// ValidationError is returned when a configuration value is out of range
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("REDIS_SERIES_TTL", "24h"),
		},

		Hedge: HedgeConfig{
			Basis:    getEnvAsFloat("HEDGE_BASIS", 252),
			Rate:     getEnvAsFloat("HEDGE_RATE", 0.01),
			Dividend: getEnvAsFloat("HEDGE_DIVIDEND", 0.0),
			Strike:   getEnvAsFloat("HEDGE_STRIKE", 100.0),
		},

		Solver: SolverConfig{
			Tol:       getEnvAsFloat("IVOL_TOL", 1e-13),
			Precision: getEnvAsFloat("IVOL_PRECISION", 1e-5),
			VLow:      getEnvAsFloat("IVOL_VLOW", 1e-4),
			VHigh:     getEnvAsFloat("IVOL_VHIGH", 1.0),
			MaxIter:   getEnvAsInt("IVOL_MAX_ITER", 200),
		},

		SkewWorkers: getEnvAsInt("SKEW_WORKERS", 4),

		APIRateLimit:      getEnvAsFloat("API_RATE_LIMIT", 20),
		SeriesRefreshCron: getEnv("SERIES_REFRESH_CRON", "0 30 18 * * 1-5"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return ValidationError{"ENV", "must be one of: development, staging, production"}
	}

	if c.Hedge.Basis <= 0 {
		return ValidationError{"HEDGE_BASIS", "must be > 0"}
	}
	if c.Hedge.Strike <= 0 {
		return ValidationError{"HEDGE_STRIKE", "must be > 0"}
	}

	if c.Solver.VLow < 0 || c.Solver.VLow >= c.Solver.VHigh {
		return ValidationError{"IVOL_VLOW", "must satisfy 0 <= IVOL_VLOW < IVOL_VHIGH"}
	}
	if c.Solver.Tol <= 0 || c.Solver.Precision <= 0 {
		return ValidationError{"IVOL_TOL", "tolerances must be > 0"}
	}
	if c.Solver.MaxIter <= 0 {
		return ValidationError{"IVOL_MAX_ITER", "must be > 0"}
	}

	if c.SkewWorkers <= 0 {
		return ValidationError{"SKEW_WORKERS", "must be > 0"}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
