package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
dispatch:
  radii_km: [1, 3, 9]
  retry_attempts: 2
pricing:
  default_base_fare: 2500
mqtt:
  broker: tcp://broker:1883
redis:
  addr: cache:6379
http:
  addr: ":9999"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 3, 9}, cfg.Dispatch.RadiiKm)
	assert.Equal(t, 2, cfg.Dispatch.RetryAttempts)
	assert.Equal(t, int64(2500), cfg.Pricing.DefaultBaseFare)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
mqtt:
  broker: tcp://localhost:1883
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 5, 10, 20}, cfg.Dispatch.RadiiKm)
	assert.Equal(t, 3, cfg.Dispatch.MinCandidates)
	assert.Equal(t, int64(2000), cfg.Pricing.DefaultBaseFare)
	assert.Equal(t, int64(300), cfg.Pricing.DefaultPerKm)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.InDelta(t, 0.40, cfg.Dispatch.Scoring.ProximityWeight, 1e-9)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"http":{"addr":":7070"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "config.toml", "a = 1")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("K_HTTP__ADDR", ":6060")
	path := writeConfig(t, "config.yaml", `
http:
  addr: ":9999"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTP.Addr)
}

func TestLoadRejectsBadRadii(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
dispatch:
  radii_km: [5, 2, 10]
`)
	_, err := Load(path)
	assert.Error(t, err)
}
