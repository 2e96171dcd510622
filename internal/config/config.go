package config

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/school-zone-cli/internal/zones"
)

// Config holds the full application configuration.
type Config struct {
	Zones     ZonesConfig     `yaml:"zones" mapstructure:"zones"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Overrides OverridesConfig `yaml:"overrides" mapstructure:"overrides"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Bounds    BoundsConfig    `yaml:"bounds" mapstructure:"bounds"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ZonesConfig locates the polygon layers. An empty Layers list uses the
// standard layer set under DataDir.
type ZonesConfig struct {
	DataDir string              `yaml:"data_dir" mapstructure:"data_dir"`
	Layers  []zones.LayerConfig `yaml:"layers" mapstructure:"layers"`
}

// ResolvedLayers returns the configured layers or the defaults.
func (z ZonesConfig) ResolvedLayers() []zones.LayerConfig {
	if len(z.Layers) > 0 {
		return z.Layers
	}
	return zones.DefaultLayers(z.DataDir)
}

// CatalogConfig configures the school catalog source.
type CatalogConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
	Table  string `yaml:"table" mapstructure:"table"`
}

// OverridesConfig locates the satellite, zone-magnet and choice tables.
type OverridesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GeocodeConfig configures the address geocoder.
type GeocodeConfig struct {
	GoogleAPIKey string             `yaml:"google_api_key" mapstructure:"google_api_key"`
	RateLimit    float64            `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs  int                `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string             `yaml:"user_agent" mapstructure:"user_agent"`
	Cache        GeocodeCacheConfig `yaml:"cache" mapstructure:"cache"`

	// BreakerFailures consecutive provider errors open that provider's
	// circuit for BreakerResetSecs. Zero disables the breaker.
	BreakerFailures  int `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// GeocodeCacheConfig selects the geocode cache backend.
type GeocodeCacheConfig struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	TTLHours      int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// BoundsConfig is the service-area rectangle applied before resolution.
type BoundsConfig struct {
	Enabled bool    `yaml:"enabled" mapstructure:"enabled"`
	MinLat  float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat  float64 `yaml:"max_lat" mapstructure:"max_lat"`
	MinLon  float64 `yaml:"min_lon" mapstructure:"min_lon"`
	MaxLon  float64 `yaml:"max_lon" mapstructure:"max_lon"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCHOOLZONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("zones.data_dir", "data")
	v.SetDefault("catalog.driver", "sqlite")
	v.SetDefault("catalog.dsn", "data/schools.db")
	v.SetDefault("catalog.table", "schools")
	v.SetDefault("overrides.path", "")
	v.SetDefault("geocode.google_api_key", "")
	v.SetDefault("geocode.rate_limit", 10.0)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.user_agent", "school-zone-cli")
	v.SetDefault("geocode.breaker_failures", 5)
	v.SetDefault("geocode.breaker_reset_secs", 30)
	v.SetDefault("geocode.cache.backend", "memory")
	v.SetDefault("geocode.cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("geocode.cache.redis_password", "")
	v.SetDefault("geocode.cache.redis_db", 0)
	v.SetDefault("geocode.cache.ttl_hours", 720)
	v.SetDefault("bounds.enabled", true)
	v.SetDefault("bounds.min_lat", 37.9)
	v.SetDefault("bounds.max_lat", 38.4)
	v.SetDefault("bounds.min_lon", -86.0)
	v.SetDefault("bounds.max_lon", -85.4)
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	needCatalog := func() {
		switch c.Catalog.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "catalog.driver must be sqlite or postgres")
		}
		if c.Catalog.DSN == "" {
			errs = append(errs, "catalog.dsn is required")
		}
	}
	needZones := func() {
		layers := c.Zones.ResolvedLayers()
		if len(layers) == 0 {
			errs = append(errs, "zones.layers is empty")
		}
		for i, l := range layers {
			if !l.Category.Valid() {
				errs = append(errs, "zones.layers["+strconv.Itoa(i)+"].category is unknown: "+string(l.Category))
			}
			if l.Path == "" {
				errs = append(errs, "zones.layers["+strconv.Itoa(i)+"].path is required")
			}
		}
	}

	switch mode {
	case "serve":
		needZones()
		needCatalog()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Bounds.Enabled && (c.Bounds.MinLat >= c.Bounds.MaxLat || c.Bounds.MinLon >= c.Bounds.MaxLon) {
			errs = append(errs, "bounds min must be < max")
		}
		switch c.Geocode.Cache.Backend {
		case "memory", "redis", "none":
		default:
			errs = append(errs, "geocode.cache.backend must be memory, redis or none")
		}
	case "resolve":
		needZones()
		needCatalog()
	case "catalog":
		needCatalog()
	case "zones", "geocode":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
