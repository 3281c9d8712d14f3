package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.test:6379")
	t.Setenv("WORKER_BATCH_SIZE", "-5")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis.test:6379", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.Worker.BatchSize, "sanitize restores the default for invalid values")
}

func TestInitLogger(t *testing.T) {
	logger := InitLogger()
	require.NotNil(t, logger)
	logger.Info("logger initialized")
}
