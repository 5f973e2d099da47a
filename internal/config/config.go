package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config chứa toàn bộ application configuration, populate từ environment variables
type Config struct {
	App        AppConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Redemption RedemptionConfig
	Job        JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// RedemptionConfig là các tham số của code lifecycle
type RedemptionConfig struct {
	CodeTTL       time.Duration
	ConfirmWindow time.Duration
	Timezone      string
	Location      *time.Location

	// số lần confirm tối đa mỗi business trong ConfirmRateWindow, 0 = tắt
	ConfirmRate       int
	ConfirmRateWindow time.Duration
}

type JobConfig struct {
	Queue       string
	SweepCron   string
	SweepBatch  int
	Concurrency int
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "LocalDeals Redemption API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: getEnvInt("JWT_ACCESS_EXPIRY", 15),
		},
		Redemption: RedemptionConfig{
			CodeTTL:           getEnvDuration("REDEMPTION_CODE_TTL", 60*time.Second),
			ConfirmWindow:     getEnvDuration("REDEMPTION_CONFIRM_WINDOW", 10*time.Second),
			Timezone:          getEnv("REDEMPTION_TIMEZONE", "UTC"),
			ConfirmRate:       getEnvInt("REDEMPTION_CONFIRM_RATE", 20),
			ConfirmRateWindow: getEnvDuration("REDEMPTION_CONFIRM_RATE_WINDOW", time.Minute),
		},
		Job: JobConfig{
			Queue:       getEnv("JOB_QUEUE", "redemption"),
			SweepCron:   getEnv("REDEMPTION_SWEEP_CRON", "@every 1m"),
			SweepBatch:  getEnvInt("REDEMPTION_SWEEP_BATCH", 500),
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không và resolve timezone
func (c *Config) Validate() error {
	if c.Redemption.CodeTTL <= 0 {
		return fmt.Errorf("REDEMPTION_CODE_TTL must be positive")
	}
	if c.Redemption.ConfirmWindow <= 0 || c.Redemption.ConfirmWindow > c.Redemption.CodeTTL {
		return fmt.Errorf("REDEMPTION_CONFIRM_WINDOW must be positive and not exceed REDEMPTION_CODE_TTL")
	}
	if c.Redemption.ConfirmRate < 0 {
		return fmt.Errorf("REDEMPTION_CONFIRM_RATE must not be negative")
	}
	if c.Redemption.ConfirmRateWindow <= 0 {
		return fmt.Errorf("REDEMPTION_CONFIRM_RATE_WINDOW must be positive")
	}

	loc, err := time.LoadLocation(c.Redemption.Timezone)
	if err != nil {
		return fmt.Errorf("invalid REDEMPTION_TIMEZONE %q: %w", c.Redemption.Timezone, err)
	}
	c.Redemption.Location = loc

	if c.Job.SweepBatch <= 0 {
		return fmt.Errorf("REDEMPTION_SWEEP_BATCH must be positive")
	}

	// Production environment phải có JWT secret
	if c.App.Environment == "production" && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
