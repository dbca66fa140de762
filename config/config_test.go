package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "mastery-engine", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 200, cfg.FairUse.DailyLimit)
	assert.Equal(t, 15*time.Second, cfg.App.ShutdownTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("FAIRUSE_DAILY_LIMIT", "50")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, 50, cfg.FairUse.DailyLimit)
	assert.Equal(t, 6380, cfg.Redis.Port)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "cassandra")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsMemoryInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_BACKEND", "memory")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("FAIRUSE_DAILY_LIMIT", "many")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 200, cfg.FairUse.DailyLimit)
}
