package redis

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestReadEnvironment(t *testing.T) {
	t.Setenv("LFX_REDIS_HOST", "redis.local")
	t.Setenv("LFX_REDIS_PORT", "6380")
	t.Setenv("LFX_REDIS_AUTH_REQUIRED", "true")
	t.Setenv("LFX_REDIS_AUTH_PASSWORD", "secret")

	cfg, err := readEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "redis.local", cfg.Host)
	assert.Equal(t, "6380", cfg.Port)
	assert.Equal(t, 3, cfg.LockExpirationSeconds)
	assert.Equal(t, 20, cfg.LockRetries)
	assert.False(t, cfg.HAMode)

	client := CreateClient(cfg, DB(2))
	defer client.Close()
	options := client.Options()
	assert.Equal(t, "redis.local:6380", options.Addr)
	assert.Equal(t, 2, options.DB)
	assert.Equal(t, "secret", options.Password)
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, "lock:extraction-1", LockKey("extraction-1"))
}
