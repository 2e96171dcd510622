package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/catalog"
	"github.com/sells-group/school-zone-cli/internal/config"
	"github.com/sells-group/school-zone-cli/internal/metrics"
	"github.com/sells-group/school-zone-cli/internal/overrides"
	"github.com/sells-group/school-zone-cli/internal/resolve"
	"github.com/sells-group/school-zone-cli/internal/zones"
	"github.com/sells-group/school-zone-cli/pkg/geocode"
)

// loadDataset reads the school catalog and override tables.
func loadDataset(ctx context.Context, c *config.Config) (*resolve.Dataset, error) {
	snap, err := catalog.Open(ctx, catalog.SourceConfig{
		Driver: c.Catalog.Driver,
		DSN:    c.Catalog.DSN,
		Table:  c.Catalog.Table,
	})
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}
	tables, err := overrides.Load(c.Overrides.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load overrides")
	}
	return &resolve.Dataset{Catalog: snap, Overrides: tables}, nil
}

// buildEngine loads zones and the dataset and returns a ready engine.
func buildEngine(ctx context.Context, c *config.Config) (*resolve.Engine, *zones.Store, error) {
	store, err := zones.Load(ctx, c.Zones.ResolvedLayers())
	if err != nil {
		return nil, nil, eris.Wrap(err, "load zones")
	}
	data, err := loadDataset(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	return resolve.NewEngine(store, data), store, nil
}

// reloadDataset rebuilds the catalog and overrides and swaps them into the
// engine. The previous dataset stays live on failure.
func reloadDataset(ctx context.Context, c *config.Config, eng *resolve.Engine) error {
	data, err := loadDataset(ctx, c)
	if err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
		return err
	}
	eng.Swap(data)
	metrics.CatalogReloadsTotal.WithLabelValues("ok").Inc()
	if snap, ok := data.Catalog.(*catalog.Snapshot); ok {
		zap.L().Info("catalog swapped", zap.String("version", snap.Version), zap.Int("schools", snap.Len()))
	}
	return nil
}

// buildGeocoder assembles the provider chain behind the configured cache.
// The returned close func releases the cache backend.
func buildGeocoder(c *config.Config) (geocode.Client, func(), error) {
	opts := []geocode.Option{geocode.WithGoogleAPIKey(c.Geocode.GoogleAPIKey)}
	if c.Geocode.RateLimit > 0 {
		opts = append(opts, geocode.WithRateLimit(c.Geocode.RateLimit))
	}
	if c.Geocode.UserAgent != "" {
		opts = append(opts, geocode.WithUserAgent(c.Geocode.UserAgent))
	}
	if c.Geocode.TimeoutSecs > 0 {
		opts = append(opts, geocode.WithTimeout(time.Duration(c.Geocode.TimeoutSecs)*time.Second))
	}
	if c.Geocode.BreakerFailures > 0 {
		opts = append(opts, geocode.WithCircuitBreaker(c.Geocode.BreakerFailures, time.Duration(c.Geocode.BreakerResetSecs)*time.Second))
	}
	client := geocode.NewClient(opts...)
	noop := func() {}

	switch c.Geocode.Cache.Backend {
	case "none":
		return client, noop, nil
	case "", "memory":
		return geocode.NewCachedClient(client, geocode.NewMemoryCache()), noop, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Geocode.Cache.RedisAddr,
			Password: c.Geocode.Cache.RedisPassword,
			DB:       c.Geocode.Cache.RedisDB,
		})
		ttl := time.Duration(c.Geocode.Cache.TTLHours) * time.Hour
		zap.L().Info("geocode cache using redis", zap.String("addr", c.Geocode.Cache.RedisAddr), zap.Duration("ttl", ttl))
		return geocode.NewCachedClient(client, geocode.NewRedisCache(rdb, ttl)), func() { _ = rdb.Close() }, nil
	default:
		return nil, noop, eris.Errorf("unknown geocode cache backend %q", c.Geocode.Cache.Backend)
	}
}
