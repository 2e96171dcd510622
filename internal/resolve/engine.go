// Package resolve turns a coordinate into the categorized set of schools an
// address is eligible for.
package resolve

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/metrics"
	"github.com/sells-group/school-zone-cli/internal/model"
	"github.com/sells-group/school-zone-cli/internal/overrides"
	"github.com/sells-group/school-zone-cli/internal/zones"
)

// Catalog is the read side of the school catalog used during resolution.
type Catalog interface {
	ResolveByGISName(name string, hint model.Level) (model.School, bool)
	ResolveFeeders(highSchoolGIS string) []model.School
	FindByFlags(flags ...model.Flag) []model.School
	GetDetails(codes []string) map[string]model.School
	Lookup(ref string, hint model.Level) (model.School, bool)
}

// ZoneQuerier finds the zones containing a point.
type ZoneQuerier interface {
	QueryContaining(p zones.Point) []*zones.Zone
}

// Dataset is the swappable reference data an engine resolves against.
type Dataset struct {
	Catalog   Catalog
	Overrides *overrides.Tables
}

// Query is one resolution request.
type Query struct {
	Lat  float64
	Lon  float64
	Sort SortOptions
}

// Engine resolves queries against a zone set and the current dataset.
// ResolveSchools is safe for concurrent use with Swap.
type Engine struct {
	zones ZoneQuerier
	data  atomic.Pointer[Dataset]
	log   *zap.Logger
}

// NewEngine creates an engine over zq and the initial dataset.
func NewEngine(zq ZoneQuerier, data *Dataset) *Engine {
	e := &Engine{
		zones: zq,
		log:   zap.L().With(zap.String("component", "resolve")),
	}
	e.data.Store(data)
	return e
}

// Swap atomically replaces the dataset. In-flight resolutions finish on
// the snapshot they started with. A nil dataset is ignored.
func (e *Engine) Swap(data *Dataset) {
	if data == nil {
		return
	}
	e.data.Store(data)
}

// Dataset returns the active dataset.
func (e *Engine) Dataset() *Dataset {
	return e.data.Load()
}

// ResolveSchools returns every school the point is eligible for, one entry per
// school, grouped by category. Invalid coordinates yield an empty result.
func (e *Engine) ResolveSchools(q Query) model.Result {
	start := time.Now()
	defer func() {
		metrics.ResolutionDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	p := zones.Point{Lat: q.Lat, Lon: q.Lon}
	data := e.data.Load()
	if !p.Valid() || data == nil || data.Catalog == nil {
		metrics.ResolutionsTotal.WithLabelValues("invalid").Inc()
		return model.EmptyResult()
	}

	r := &run{data: data, log: e.log}
	r.resolveZones(e.zones.QueryContaining(p))
	r.applyOverrides()
	r.applyFlags()

	merged := mergeCandidates(r.cands)
	codes := make([]string, len(merged))
	for i, c := range merged {
		codes[i] = c.Code
	}
	details := data.Catalog.GetDetails(codes)

	entries := make([]model.Entry, 0, len(merged))
	for _, c := range merged {
		s, ok := details[c.Code]
		if !ok {
			r.gap("details", "", c.Source, c.Code)
			continue
		}
		entry := model.Entry{
			School:     s,
			Status:     c.Status,
			Category:   model.CategoryFor(c.Status, s.Level),
			DistanceMi: distanceTo(s, q.Lat, q.Lon),
		}
		annotate(&entry)
		entries = append(entries, entry)
	}

	res := model.Result{
		ResultsByZone:  group(entries, q.Sort),
		IsInChoiceZone: r.home.inChoice,
	}
	outcome := "ok"
	if len(entries) == 0 {
		outcome = "empty"
	}
	metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()
	return res
}

// run accumulates the state of a single resolution.
type run struct {
	data  *Dataset
	log   *zap.Logger
	home  home
	cands []model.Candidate
}

func (r *run) add(code string, cat model.Category, status model.Status, source string) {
	r.cands = append(r.cands, model.Candidate{Code: code, Category: cat, Status: status, Source: source})
}

// addRef resolves an override reference by code or by display name at
// level.
func (r *run) addRef(ref string, level model.Level, cat model.Category, status model.Status, source string) {
	s, ok := r.data.Catalog.Lookup(ref, level)
	if !ok {
		r.gap("override", "", source, ref)
		return
	}
	r.add(s.Code, cat, status, source)
}

// gap records an identifier that could not be mapped. Resolution continues.
func (r *run) gap(kind string, category model.ZoneCategory, source, key string) {
	metrics.MappingGapsTotal.WithLabelValues(kind).Inc()
	r.log.Warn("resolve: unmapped identifier",
		zap.String("kind", kind),
		zap.String("category", string(category)),
		zap.String("source", source),
		zap.String("key", key),
	)
}
