// Package metrics holds the Prometheus collectors for school resolution and
// geocoding.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolzone_resolutions_total",
		Help: "Total resolutions by outcome (ok, empty, invalid)",
	}, []string{"outcome"})
	ResolutionDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schoolzone_resolution_duration_ms",
		Help:    "Resolution duration in milliseconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 50, 100, 250},
	})
	MappingGapsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolzone_mapping_gaps_total",
		Help: "Unresolved identifiers skipped during resolution",
	}, []string{"kind"})
	IndexFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schoolzone_index_fallbacks_total",
		Help: "Spatial index errors that fell back to a linear scan",
	})
	ZonesLoaded = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schoolzone_zones_loaded",
		Help: "Zone features loaded per layer category",
	}, []string{"category"})
	CatalogSchools = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schoolzone_catalog_schools",
		Help: "School records in the active catalog snapshot",
	})
	CatalogReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolzone_catalog_reloads_total",
		Help: "Catalog reload attempts by result",
	}, []string{"result"})
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolzone_geocode_requests_total",
		Help: "Geocoder calls by provider and result (matched, not_found, error)",
	}, []string{"provider", "result"})
	GeocodeDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schoolzone_geocode_duration_ms",
		Help:    "Geocoder call duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"provider"})
	GeocodeCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schoolzone_geocode_cache_hits_total",
		Help: "Geocode cache hits",
	})
	GeocodeCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schoolzone_geocode_cache_misses_total",
		Help: "Geocode cache misses",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolzone_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(ResolutionDurationMs)
	prometheus.MustRegister(MappingGapsTotal)
	prometheus.MustRegister(IndexFallbacksTotal)
	prometheus.MustRegister(ZonesLoaded)
	prometheus.MustRegister(CatalogSchools)
	prometheus.MustRegister(CatalogReloadsTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(GeocodeCacheHitsTotal)
	prometheus.MustRegister(GeocodeCacheMissesTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }
