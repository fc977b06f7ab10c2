package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Engine   EngineConfig
	App      AppConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// EngineConfig holds scoring engine configuration
type EngineConfig struct {
	RecomputeInterval    time.Duration
	FinalizeInterval     time.Duration
	BatchSize            int
	IdleThresholdMinutes int
	LockTTL              time.Duration
	DefaultTimezone      string
	RoleCacheTTL         time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	StatusPort int
	Env        string
	LogLevel   string
}

func Load() (*Config, error) {
	// A missing .env file is fine; settings may come from the process environment.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	dbMinConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "prodscore"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(dbMaxConns),
		MinConns: int32(dbMinConns),
	}

	// Engine configuration
	recomputeInterval, err := time.ParseDuration(getEnv("ENGINE_RECOMPUTE_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_RECOMPUTE_INTERVAL: %w", err)
	}

	finalizeInterval, err := time.ParseDuration(getEnv("ENGINE_FINALIZE_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_FINALIZE_INTERVAL: %w", err)
	}

	batchSize, err := strconv.Atoi(getEnv("ENGINE_BATCH_SIZE", "200"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_BATCH_SIZE: %w", err)
	}

	idleThreshold, err := strconv.Atoi(getEnv("ENGINE_IDLE_THRESHOLD_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_IDLE_THRESHOLD_MINUTES: %w", err)
	}

	lockTTL, err := time.ParseDuration(getEnv("ENGINE_LOCK_TTL", "2m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_LOCK_TTL: %w", err)
	}

	roleCacheTTL, err := time.ParseDuration(getEnv("ENGINE_ROLE_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_ROLE_CACHE_TTL: %w", err)
	}

	config.Engine = EngineConfig{
		RecomputeInterval:    recomputeInterval,
		FinalizeInterval:     finalizeInterval,
		BatchSize:            batchSize,
		IdleThresholdMinutes: idleThreshold,
		LockTTL:              lockTTL,
		DefaultTimezone:      getEnv("ENGINE_DEFAULT_TIMEZONE", "UTC"),
		RoleCacheTTL:         roleCacheTTL,
	}

	// Application configuration
	statusPort, err := strconv.Atoi(getEnv("STATUS_PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATUS_PORT: %w", err)
	}

	config.App = AppConfig{
		StatusPort: statusPort,
		Env:        getEnv("APP_ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Database.MaxConns <= 0 || c.Database.MinConns < 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive and DB_MIN_CONNS non-negative")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.Engine.BatchSize <= 0 {
		return fmt.Errorf("ENGINE_BATCH_SIZE must be positive")
	}
	if c.Engine.IdleThresholdMinutes <= 0 {
		return fmt.Errorf("ENGINE_IDLE_THRESHOLD_MINUTES must be positive")
	}
	if c.Engine.LockTTL <= 0 {
		return fmt.Errorf("ENGINE_LOCK_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.Engine.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid ENGINE_DEFAULT_TIMEZONE: %w", err)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
