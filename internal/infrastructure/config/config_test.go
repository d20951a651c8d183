package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_TYPE", "LOCAL")

	cfg := LoadConfig()

	assert.Equal(t, "LOCAL", cfg.EnvType)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "auto", cfg.DBMigrationMode)
	assert.Equal(t, 5*time.Second, cfg.CollaboratorTimeout)
	assert.False(t, cfg.RedisEnabled())
	assert.Equal(t, "MAIN", cfg.DefaultBuildingCode)
	assert.True(t, cfg.JobsEnabled)
	assert.Equal(t, "22:00", cfg.LockupWarningTime)
	assert.Equal(t, "23:00", cfg.LockupCriticalTime)
	assert.Equal(t, "03:00", cfg.DayRolloverTime)
}

func TestLoadConfigPrefixedValuesWin(t *testing.T) {
	t.Setenv("ENV_TYPE", "server")
	t.Setenv("SERVER_DB_DRIVER", "MySQL")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SERVER_REDIS_HOST", "redis.internal")
	t.Setenv("LOCKUP_COLLABORATOR_TIMEOUT", "750ms")
	t.Setenv("SCAN_RATE_LIMIT", "2.5")
	t.Setenv("LOCKUP_JOBS_ENABLED", "false")

	cfg := LoadConfig()

	assert.Equal(t, "server", cfg.EnvType)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, "redis.internal:6379", cfg.GetRedisAddr())
	assert.Equal(t, 750*time.Millisecond, cfg.CollaboratorTimeout)
	assert.InDelta(t, 2.5, cfg.ScanRateLimit, 0.001)
	assert.False(t, cfg.JobsEnabled)
}

func TestLoadConfigUnknownEnvFallsBackToLocal(t *testing.T) {
	t.Setenv("ENV_TYPE", "staging")
	t.Setenv("LOCKUP_BUILDING_LOCK_TTL", "not-a-duration")

	cfg := LoadConfig()

	assert.Equal(t, "LOCAL", cfg.EnvType)
	assert.Equal(t, 30*time.Second, cfg.BuildingLockTTL)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "lockup"}

	assert.Equal(t, "u:p@tcp(db:3306)/lockup?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true", cfg.GetDSN())
}
