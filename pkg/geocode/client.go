// Package geocode turns street addresses into coordinates via the Census
// Geocoder (primary) and Google (fallback).
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/school-zone-cli/internal/metrics"
)

// ErrServiceUnavailable is returned when every provider failed to answer.
// An address no provider could match is not an error.
var ErrServiceUnavailable = eris.New("geocode: service unavailable")

// Client geocodes addresses.
type Client interface {
	// Geocode geocodes a single one-line address.
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Source    string  `json:"source"`  // "census" or "google"
	Quality   string  `json:"quality"` // "rooftop", "range", "centroid", "approximate"
	Matched   bool    `json:"matched"`
}

// Provider is a single geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithGoogleAPIKey enables Google Geocoding API as a fallback.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for both Census and Google requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit shared by providers.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout sets the HTTP timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		g.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent to providers.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithProviders replaces the provider chain.
func WithProviders(p ...Provider) Option {
	return func(g *geocoder) {
		g.providers = p
	}
}

type geocoder struct {
	httpClient *http.Client
	googleKey  string
	userAgent  string
	timeout    time.Duration
	limiter    *rate.Limiter
	providers  []Provider
	log        *zap.Logger

	breakerThreshold int
	breakerReset     time.Duration
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		timeout:   30 * time.Second,
		limiter:   rate.NewLimiter(10, 10),
		userAgent: "school-zone-cli",
		log:       zap.L().With(zap.String("component", "geocode")),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: g.timeout}
	}
	if g.providers == nil {
		g.providers = []Provider{&censusProvider{g: g}}
		if g.googleKey != "" {
			g.providers = append(g.providers, &googleProvider{g: g})
		}
	}
	if g.breakerThreshold > 0 {
		for i, p := range g.providers {
			g.providers[i] = &breakerProvider{Provider: p, b: newBreaker(g.breakerThreshold, g.breakerReset)}
		}
	}
	return g
}

// Geocode asks each provider in turn and returns the first match. It never
// retries a provider. If no provider matched and at least one answered, the
// result is unmatched; if all failed, ErrServiceUnavailable is returned.
func (g *geocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	address = normalizeAddress(address)
	if address == "" {
		return &Result{Matched: false}, nil
	}

	answered := false
	var lastErr error
	for _, p := range g.providers {
		start := time.Now()
		res, err := p.Geocode(ctx, address)
		metrics.GeocodeDurationMs.WithLabelValues(p.Name()).Observe(float64(time.Since(start).Milliseconds()))

		switch {
		case err != nil:
			metrics.GeocodeRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
			g.log.Warn("geocode: provider failed", zap.String("provider", p.Name()), zap.Error(err))
			lastErr = err
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "geocode: canceled")
			}
		case res.Matched:
			metrics.GeocodeRequestsTotal.WithLabelValues(p.Name(), "matched").Inc()
			return res, nil
		default:
			metrics.GeocodeRequestsTotal.WithLabelValues(p.Name(), "not_found").Inc()
			answered = true
		}
	}

	if !answered && lastErr != nil {
		return nil, eris.Wrapf(ErrServiceUnavailable, "geocode: %v", lastErr)
	}
	return &Result{Matched: false}, nil
}

// wait applies the shared rate limit.
func (g *geocoder) wait(ctx context.Context, provider string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return eris.Wrapf(err, "geocode: %s rate limit", provider)
	}
	return nil
}

// get sends a GET request and returns the response for a 200 status.
func (g *geocoder) get(ctx context.Context, provider, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s build request", provider)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: %s request", provider)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("geocode: %s returned status %d", provider, resp.StatusCode)
	}
	return resp, nil
}

// normalizeAddress trims and collapses internal whitespace.
func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(address), " ")
}
