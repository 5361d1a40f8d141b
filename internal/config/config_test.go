package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_trade_zones/internal/config"
	"github.com/vitos/crypto_trade_zones/internal/zones"
	"go.uber.org/multierr"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
server:
  port: 9090
analysis:
  symbols: [ETHUSDT, SOLUSDT]
  interval: "15"
engine:
  band_mode: percentage
  max_zones: 2
`)

	cfg, err := config.Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"ETHUSDT", "SOLUSDT"}, cfg.Analysis.Symbols)
	assert.Equal(t, "15", cfg.Analysis.Interval)
	assert.Equal(t, 500, cfg.Analysis.Limit)
	assert.Equal(t, zones.BandPercentage, cfg.Engine.BandMode)
	assert.Equal(t, 2, cfg.Engine.MaxZones)
	assert.Equal(t, 10, cfg.Engine.PivotWindow)
	assert.Equal(t, 0.25, cfg.Engine.HysteresisRatio)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "logging:\n  level: info\n")
	envPath := writeFile(t, dir, ".env", "ZONES_API_KEY=from-file\nZONES_DB_PATH=/tmp/zones-test.db\n")

	t.Setenv("ZONES_LOG_LEVEL", "debug")
	t.Setenv("ZONES_SYMBOLS", "btcusdt, ethusdt")
	t.Setenv("ZONES_API_KEY", "")
	t.Setenv("ZONES_DB_PATH", "")
	os.Unsetenv("ZONES_API_KEY")
	os.Unsetenv("ZONES_DB_PATH")

	cfg, err := config.Load(path, envPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "from-file", cfg.Exchange.APIKey)
	assert.Equal(t, "/tmp/zones-test.db", cfg.Storage.Path)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Analysis.Symbols)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "")

	cfg, err := config.Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "nope.yaml"), "")
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "server: [1, 2\n")
	_, err = config.Load(bad, "")
	assert.Error(t, err)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Storage.Path = ""
	cfg.Analysis.Symbols = nil
	cfg.Analysis.Limit = 5000

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "analysis.limit")
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := config.Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "60", cfg.Analysis.Interval)
	assert.Equal(t, zones.DefaultOptions().PivotWindow, cfg.Engine.PivotWindow)
}
