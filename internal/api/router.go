// Package api is the HTTP surface over the resolution engine: address and
// coordinate lookups, health and metrics.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/metrics"
	"github.com/sells-group/school-zone-cli/internal/model"
	"github.com/sells-group/school-zone-cli/internal/resolve"
	"github.com/sells-group/school-zone-cli/pkg/geocode"
)

// Resolver resolves a coordinate to schools.
type Resolver interface {
	ResolveSchools(q resolve.Query) model.Result
}

// Deps are the collaborators the router serves.
type Deps struct {
	Resolver Resolver
	Geocoder geocode.Client
	Area     ServiceArea

	CORSOrigins []string
	// MetricsPath mounts the Prometheus handler when non-empty.
	MetricsPath string
	// Health adds fields to the /health response.
	Health func() map[string]any
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	h := &handlers{deps: d, log: zap.L().With(zap.String("component", "api"))}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(h.instrument)

	r.Get("/health", h.health)
	r.Get("/schools", h.schoolsByCoordinate)
	r.Post("/school-details-by-address", h.schoolsByAddress)
	if d.MetricsPath != "" {
		r.Handle(d.MetricsPath, metrics.Handler())
	}
	return r
}

// requestIDHeader is the header chi reads an incoming id from; it is
// echoed on every response.
var requestIDHeader = middleware.RequestIDHeader

// echoRequestID copies the id assigned by middleware.RequestID onto the
// response.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(requestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

// instrument counts requests by route pattern and status and logs each one.
func (h *handlers) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		h.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
