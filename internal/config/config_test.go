package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty directory so no stray config.yaml is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://eprijava.tax.gov.me/TaxisPortal", cfg.Portal.BaseURL)
	assert.Equal(t, 20, cfg.Portal.PageSize)
	assert.Equal(t, 60, cfg.Portal.TimeoutSecs)
	assert.Equal(t, "details", cfg.Portal.Variant)
	assert.Equal(t, "./statements", cfg.Harvest.CacheDir)
	assert.Equal(t, "./Results.csv", cfg.Harvest.OutputPath)
	assert.Equal(t, "./entities.yaml", cfg.Harvest.RegistryPath)
	assert.Equal(t, 200, cfg.Harvest.ThrottleMs)
	assert.Equal(t, 1, cfg.Harvest.Concurrency)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := `
portal:
  session_token: "taxisSession=abc123"
  variant: getstatement
harvest:
  throttle_ms: 1000
  concurrency: 3
store:
  driver: postgres
  database_url: postgres://localhost/finharvest
`
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "taxisSession=abc123", cfg.Portal.SessionToken)
	assert.Equal(t, "getstatement", cfg.Portal.Variant)
	assert.Equal(t, 1000, cfg.Harvest.ThrottleMs)
	assert.Equal(t, 3, cfg.Harvest.Concurrency)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	// Untouched keys keep defaults.
	assert.Equal(t, 20, cfg.Portal.PageSize)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FINHARVEST_PORTAL_SESSION_TOKEN", "taxisSession=from-env")
	t.Setenv("FINHARVEST_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "taxisSession=from-env", cfg.Portal.SessionToken)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
