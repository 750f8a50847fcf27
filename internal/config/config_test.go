package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "defaults-test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Inventory.DefaultMinStock)
	assert.Equal(t, 1000, cfg.Inventory.DefaultMaxStock)
	assert.Equal(t, time.Duration(0), cfg.Inventory.AlertSweepInterval)
	assert.Equal(t, 72*time.Hour, cfg.Inventory.StaleTransferAfter)
	assert.False(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.JWT.AuthRequired)
}

func TestLoadRequiresRealJWTSecret(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("placeholder", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("auth disabled", func(t *testing.T) {
		t.Setenv("AUTH_REQUIRED", "false")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Empty(t, cfg.JWT.Secret)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_MIN_STOCK", "3")
	t.Setenv("DEFAULT_MAX_STOCK", "30")
	t.Setenv("ALERT_SWEEP_INTERVAL", "1m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("REDIS_ENABLED", "no-bool")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Inventory.DefaultMinStock)
	assert.Equal(t, 30, cfg.Inventory.DefaultMaxStock)
	assert.Equal(t, time.Minute, cfg.Inventory.AlertSweepInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.JWT.AuthRequired)
	// valor inválido cae al default
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("thresholds", func(t *testing.T) {
		t.Setenv("DEFAULT_MIN_STOCK", "50")
		t.Setenv("DEFAULT_MAX_STOCK", "10")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("transaction limits", func(t *testing.T) {
		t.Setenv("TRANSACTIONS_DEFAULT_LIMIT", "100")
		t.Setenv("TRANSACTIONS_MAX_LIMIT", "10")
		_, err := Load()
		assert.Error(t, err)
	})
}
