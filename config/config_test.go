package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Host)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 10, cfg.Worker.BatchSize)
	assert.False(t, cfg.Postgres.Enabled())
	assert.False(t, cfg.Auth.Configured())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("SMTP_RETRY_WAIT", "5s")
	t.Setenv("WORKER_BATCH_SIZE", "25")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.True(t, cfg.Auth.Configured())
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.True(t, cfg.Postgres.Enabled())
	assert.Contains(t, cfg.Postgres.DSN(), "host=pg.internal")
	assert.Equal(t, 5*time.Second, cfg.Mail.RetryWait)
	assert.Equal(t, 25, cfg.Worker.BatchSize)
}

func TestSanitizeClamps(t *testing.T) {
	cfg := AppConfig{
		Mail:   MailConfig{Port: -1, MaxRetries: -3, RetryWait: -time.Second},
		Worker: WorkerConfig{BatchSize: 10000, SendsPerSecond: -1},
	}
	cfg.Sanitize()

	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 0, cfg.Mail.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Mail.RetryWait)
	assert.Equal(t, maxBatchSize, cfg.Worker.BatchSize)
	assert.Equal(t, float64(0), cfg.Worker.SendsPerSecond)
}

func TestDetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}
