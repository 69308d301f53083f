package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "localhost", cfg.Database().Host)
	assert.Equal(t, uint(10), cfg.Database().ConnectAttempts)
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
	assert.Empty(t, cfg.RedisAddr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("AVAILABILITY_CACHE_TTL", "5s")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, 5*time.Second, cfg.AvailabilityTTL)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load("testdata/missing.env")
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load("testdata/missing.env")
	assert.ErrorContains(t, err, "STORE_DRIVER")
}
