package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"localdeals-backend/internal/infrastructure/database"
)

// envParser gom lỗi parse của nhiều biến DB_* để báo một lần
type envParser struct {
	errs []error
}

func (p *envParser) int(key, def string) int {
	v, err := strconv.Atoi(getEnv(key, def))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return v
}

func (p *envParser) duration(key, def string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, def))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
	}
	return d
}

// LoadDatabaseConfig builds the pgxpool settings from DB_* variables.
func LoadDatabaseConfig() (*database.DBConfig, error) {
	var p envParser

	cfg := &database.DBConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              p.int("DB_PORT", "5432"),
		Username:          getEnv("DB_USER", "localdeals"),
		Password:          getEnv("DB_PASSWORD", "secret"),
		DBName:            getEnv("DB_NAME", "localdeals_dev"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(p.int("DB_MAX_CONNECTIONS", "25")),
		MinConns:          int32(p.int("DB_MIN_CONNECTIONS", "2")),
		MaxConnLifetime:   p.duration("DB_MAX_CONN_LIFETIME", "30m"),
		MaxConnIdleTime:   p.duration("DB_MAX_CONN_IDLE_TIME", "5m"),
		HealthCheckPeriod: p.duration("DB_HEALTH_CHECK_PERIOD", "1m"),
		MaxRetries:        p.int("DB_MAX_RETRIES", "5"),
		RetryDelay:        p.duration("DB_RETRY_DELAY", "1s"),
		ConnectTimeout:    p.duration("DB_CONNECT_TIMEOUT", "10s"),
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}

	// advisory lock giữ connection suốt transaction, pool phải đủ rộng
	if cfg.MaxConns < 1 || cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("invalid pool size: min=%d max=%d", cfg.MinConns, cfg.MaxConns)
	}

	return cfg, nil
}
