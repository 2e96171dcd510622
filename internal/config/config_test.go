package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/model"
	"github.com/sells-group/school-zone-cli/internal/zones"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Catalog.Driver)
	assert.Equal(t, "data/schools.db", cfg.Catalog.DSN)
	assert.Equal(t, "schools", cfg.Catalog.Table)
	assert.Equal(t, "data", cfg.Zones.DataDir)
	assert.Empty(t, cfg.Zones.Layers)
	assert.Len(t, cfg.Zones.ResolvedLayers(), 7)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Bounds.Enabled)
	assert.InDelta(t, 37.9, cfg.Bounds.MinLat, 0.001)
	assert.InDelta(t, -85.4, cfg.Bounds.MaxLon, 0.001)
	assert.Equal(t, "memory", cfg.Geocode.Cache.Backend)
	assert.Equal(t, 720, cfg.Geocode.Cache.TTLHours)
	assert.InDelta(t, 10.0, cfg.Geocode.RateLimit, 0.001)
	assert.Equal(t, 5, cfg.Geocode.BreakerFailures)
	assert.Equal(t, 30, cfg.Geocode.BreakerResetSecs)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
catalog:
  driver: postgres
  dsn: postgres://localhost/schools
log:
  level: debug
  format: console
server:
  port: 9090
zones:
  layers:
    - category: reside_high
      path: /data/high.shp
      fields: [High, Name]
    - category: choice
      path: /data/choice.shp
overrides:
  path: overrides.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Catalog.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "overrides.yaml", cfg.Overrides.Path)
	require.Len(t, cfg.Zones.Layers, 2)
	assert.Equal(t, zones.LayerConfig{Category: model.ZoneResideHigh, Path: "/data/high.shp", Fields: []string{"High", "Name"}}, cfg.Zones.Layers[0])
	assert.Equal(t, cfg.Zones.Layers, cfg.Zones.ResolvedLayers())
	// Defaults still apply for unset values
	assert.Equal(t, "schools", cfg.Catalog.Table)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
catalog:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("SCHOOLZONE_CATALOG_DRIVER", "postgres")
	t.Setenv("SCHOOLZONE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Catalog.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("SCHOOLZONE_SERVER_PORT", "3000")
	t.Setenv("SCHOOLZONE_GEOCODE_GOOGLE_API_KEY", "abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "abc", cfg.Geocode.GoogleAPIKey)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [port"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Zones.DataDir = "data"
	cfg.Catalog.Driver = "sqlite"
	cfg.Catalog.DSN = "schools.db"
	cfg.Server.Port = 5001
	cfg.Geocode.Cache.Backend = "memory"
	cfg.Bounds = BoundsConfig{Enabled: true, MinLat: 37.9, MaxLat: 38.4, MinLon: -86, MaxLon: -85.4}
	return cfg
}

func TestValidateServe(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_BadBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Bounds.MinLat = 39

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bounds min must be < max")

	cfg.Bounds.Enabled = false
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_BadCacheBackend(t *testing.T) {
	cfg := validDefaults()
	cfg.Geocode.Cache.Backend = "memcached"

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "geocode.cache.backend")
}

func TestValidateCatalog(t *testing.T) {
	cfg := validDefaults()
	cfg.Catalog.Driver = "mysql"
	cfg.Catalog.DSN = ""

	err := cfg.Validate("catalog")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "catalog.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "catalog.dsn is required")
}

func TestValidateResolve_BadLayer(t *testing.T) {
	cfg := validDefaults()
	cfg.Zones.Layers = []zones.LayerConfig{{Category: "parks", Path: ""}}

	err := cfg.Validate("resolve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "category is unknown: parks")
	assert.Contains(t, err.Error(), "zones.layers[0].path is required")
}

func TestValidateNoRequirements(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.Validate("zones"))
	assert.NoError(t, cfg.Validate("geocode"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
