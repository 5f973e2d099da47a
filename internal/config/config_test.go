package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Redemption.CodeTTL)
	assert.Equal(t, 10*time.Second, cfg.Redemption.ConfirmWindow)
	assert.Equal(t, time.UTC, cfg.Redemption.Location)
	assert.Equal(t, 20, cfg.Redemption.ConfirmRate)
	assert.Equal(t, "@every 1m", cfg.Job.SweepCron)
	assert.Equal(t, 500, cfg.Job.SweepBatch)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("REDEMPTION_CODE_TTL", "90s")
	t.Setenv("REDEMPTION_CONFIRM_WINDOW", "15s")
	t.Setenv("REDEMPTION_TIMEZONE", "UTC")
	t.Setenv("REDEMPTION_CONFIRM_RATE", "0")
	t.Setenv("REDEMPTION_SWEEP_BATCH", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Redemption.CodeTTL)
	assert.Equal(t, 15*time.Second, cfg.Redemption.ConfirmWindow)
	assert.Equal(t, 0, cfg.Redemption.ConfirmRate)
	assert.Equal(t, 50, cfg.Job.SweepBatch)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App: AppConfig{Environment: "development"},
			JWT: JWTConfig{Secret: defaultJWTSecret},
			Redemption: RedemptionConfig{
				CodeTTL:           time.Minute,
				ConfirmWindow:     10 * time.Second,
				Timezone:          "UTC",
				ConfirmRate:       20,
				ConfirmRateWindow: time.Minute,
			},
			Job: JobConfig{SweepBatch: 500},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero ttl", func(c *Config) { c.Redemption.CodeTTL = 0 }, "REDEMPTION_CODE_TTL"},
		{"window longer than ttl", func(c *Config) { c.Redemption.ConfirmWindow = 2 * time.Minute }, "REDEMPTION_CONFIRM_WINDOW"},
		{"negative rate", func(c *Config) { c.Redemption.ConfirmRate = -1 }, "REDEMPTION_CONFIRM_RATE"},
		{"unknown timezone", func(c *Config) { c.Redemption.Timezone = "Mars/Olympus_Mons" }, "REDEMPTION_TIMEZONE"},
		{"zero sweep batch", func(c *Config) { c.Job.SweepBatch = 0 }, "REDEMPTION_SWEEP_BATCH"},
		{"default secret in production", func(c *Config) { c.App.Environment = "production" }, "JWT_SECRET"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, cfg.Redemption.Location)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_CONNECTIONS", "10")
	t.Setenv("DB_MIN_CONNECTIONS", "1")

	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.EqualValues(t, 10, cfg.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)

	t.Setenv("DB_MIN_CONNECTIONS", "20")
	_, err = LoadDatabaseConfig()
	assert.Error(t, err)

	t.Setenv("DB_MIN_CONNECTIONS", "1")
	t.Setenv("DB_RETRY_DELAY", "soon")
	_, err = LoadDatabaseConfig()
	assert.ErrorContains(t, err, "DB_RETRY_DELAY")
}
