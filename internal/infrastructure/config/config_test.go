package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "kolnet-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 10*time.Second, cfg.App.OperationTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Network.MaxChainDepth)
	assert.Equal(t, 10, cfg.Network.MaxTreeDepth)
	assert.True(t, cfg.Network.TreeCacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Network.TreeCacheTTL)
	assert.Equal(t, 3, cfg.Device.MaxWriteRetries)
	assert.Equal(t, 16, cfg.Integrity.MaxCascadeDepth)
	assert.True(t, cfg.Commission.LowTierRate.Equal(decimal.RequireFromString("0.10")))
	assert.True(t, cfg.Commission.HighTierRate.Equal(decimal.RequireFromString("0.15")))
	assert.True(t, cfg.Commission.HighTierUnitCommission.Equal(decimal.NewFromInt(2500000)))
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KOLNET_NETWORK_MAX_CHAIN_DEPTH", "4")
	t.Setenv("KOLNET_COMMISSION_HIGH_TIER_RATE", "0.2")
	t.Setenv("KOLNET_NETWORK_TREE_CACHE_ENABLED", "false")

	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Network.MaxChainDepth)
	assert.True(t, cfg.Commission.HighTierRate.Equal(decimal.RequireFromString("0.2")))
	assert.False(t, cfg.Network.TreeCacheEnabled)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	content := `
[app]
env = "staging"

[device]
max_write_retries = 7

[integrity]
max_cascade_depth = 4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, v.ReadInConfig())

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, 7, cfg.Device.MaxWriteRetries)
	assert.Equal(t, 4, cfg.Integrity.MaxCascadeDepth)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("invalid decimal", func(t *testing.T) {
		t.Setenv("KOLNET_COMMISSION_LOW_TIER_RATE", "ten percent")
		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commission.low_tier_rate")
	})

	t.Run("rate above one", func(t *testing.T) {
		t.Setenv("KOLNET_COMMISSION_HIGH_TIER_RATE", "1.5")
		_, err := fromViper(viper.New())
		require.Error(t, err)
	})

	t.Run("idle conns exceed open conns", func(t *testing.T) {
		t.Setenv("KOLNET_DATABASE_MAX_OPEN_CONNS", "2")
		t.Setenv("KOLNET_DATABASE_MAX_IDLE_CONNS", "5")
		_, err := fromViper(viper.New())
		require.Error(t, err)
	})

	t.Run("production requires password", func(t *testing.T) {
		t.Setenv("KOLNET_APP_ENV", "production")
		t.Setenv("KOLNET_DATABASE_SSLMODE", "require")
		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password")
	})

	t.Run("production rejects sslmode disable", func(t *testing.T) {
		t.Setenv("KOLNET_APP_ENV", "production")
		t.Setenv("KOLNET_DATABASE_PASSWORD", "secret")
		_, err := fromViper(viper.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")
	})

	t.Run("sampling ratio out of range", func(t *testing.T) {
		t.Setenv("KOLNET_TELEMETRY_SAMPLING_RATIO", "1.5")
		_, err := fromViper(viper.New())
		require.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "kol", Password: "p@ss word", DBName: "kolnet", SSLMode: "disable"}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://kol:p%40ss%20word@db:5432/kolnet")
	assert.Contains(t, dsn, "sslmode=disable")
}
