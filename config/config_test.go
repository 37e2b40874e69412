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

	assert.Equal(t, "blackreaper-engine", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, int64(50), cfg.Economy.TaskRewardRC)
	assert.Equal(t, "blackreaper:events", cfg.EventBus.Channel)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.LeaderboardRebuildInterval)
	assert.Equal(t, 21, cfg.Scheduler.DigestHour)
	assert.NotNil(t, cfg.Features)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ECONOMY_TASK_REWARD_RC", "75")
	t.Setenv("SCHEDULER_DIGEST_HOUR", "6")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, int64(75), cfg.Economy.TaskRewardRC)
	assert.Equal(t, 6, cfg.Scheduler.DigestHour)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_ProductionRequiresDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required in production")
}

func TestLoad_ProductionRejectsInMemory(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://engine:secret@db:5432/blackreaper")
	t.Setenv("DB_IN_MEMORY", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_IN_MEMORY cannot be used in production")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")
	t.Setenv("SCHEDULER_DIGEST_HOUR", "24")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT must be 1-65535")
	assert.Contains(t, err.Error(), "SCHEDULER_DIGEST_HOUR must be 0-23")
}

func TestDatabaseConfig_BuildsURLFromComponents(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "engine")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "blackreaper")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.Database.URL, "db.internal:5433")
	assert.Contains(t, cfg.Database.URL, "/blackreaper")
}
