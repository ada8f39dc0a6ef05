package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "APP_ENV", "LOG_MODE", "DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_NAME",
		"REDIS_ADDR", "REDIS_CHANNEL", "JWT_EXPIRATION_MINUTES", "JWT_REFRESH_EXPIRATION_HOURS",
	} {
		unsetEnv(t, key)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 15, cfg.JWTExpirationMinutes)
	assert.Equal(t, 168, cfg.JWTRefreshExpirationHours)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "neosure-events", cfg.Redis.Channel)
	assert.Equal(t, "root:@tcp(localhost:3306)/neosure_anc?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_USERNAME", "anc")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "anc_prod")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_MODE", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "anc:pw@tcp(db.internal:3307)/anc_prod?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "production", cfg.LogMode)
}

func TestLoadConfig_InvalidInteger(t *testing.T) {
	t.Setenv("JWT_EXPIRATION_MINUTES", "fifteen")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_EXPIRATION_MINUTES")
}
