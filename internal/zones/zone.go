// Package zones loads school-zone polygon layers and answers point
// containment queries against them.
package zones

import (
	"math"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/location"

	"github.com/sells-group/school-zone-cli/internal/model"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point is a finite coordinate on the globe.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) coord() geom.Coord {
	return geom.Coord{p.Lon, p.Lat}
}

// Zone is one polygon feature of a layer. Zones are immutable after load.
type Zone struct {
	ID       int
	Category model.ZoneCategory
	Layer    string
	Geometry *geom.MultiPolygon

	// Fields are the attribute keys read by Key, in fallback order.
	Fields []string

	attrs  map[string]string
	bounds *geom.Bounds
}

// NewZone builds a zone from a geometry and raw attributes. Attribute keys
// are matched case-insensitively.
func NewZone(category model.ZoneCategory, layer string, g *geom.MultiPolygon, attrs map[string]string, fields []string) *Zone {
	z := &Zone{
		Category: category,
		Layer:    layer,
		Geometry: g,
		Fields:   fields,
		attrs:    make(map[string]string, len(attrs)),
	}
	for k, v := range attrs {
		z.attrs[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	if g != nil {
		z.bounds = g.Bounds()
	}
	return z
}

// Attr returns the first non-empty attribute among keys.
func (z *Zone) Attr(keys ...string) string {
	for _, k := range keys {
		if v := z.attrs[strings.ToUpper(k)]; v != "" {
			return v
		}
	}
	return ""
}

// Key returns the zone's identifying attribute using its configured fields.
func (z *Zone) Key() string {
	return z.Attr(z.Fields...)
}

// Attrs returns a copy of the raw attributes.
func (z *Zone) Attrs() map[string]string {
	out := make(map[string]string, len(z.attrs))
	for k, v := range z.attrs {
		out[k] = v
	}
	return out
}

// Bounds returns the zone's bounding box as [minLon, minLat], [maxLon, maxLat].
func (z *Zone) Bounds() (min, max [2]float64) {
	if z.bounds == nil {
		return
	}
	return [2]float64{z.bounds.Min(0), z.bounds.Min(1)}, [2]float64{z.bounds.Max(0), z.bounds.Max(1)}
}

// Contains reports whether p lies strictly inside the zone. Rings are
// combined with the even-odd rule, so shapefile holes stored as separate
// parts are honored. A point on any ring edge is not contained.
func (z *Zone) Contains(p Point) bool {
	if z.Geometry == nil || z.bounds == nil {
		return false
	}
	c := p.coord()
	if c[0] < z.bounds.Min(0) || c[0] > z.bounds.Max(0) || c[1] < z.bounds.Min(1) || c[1] > z.bounds.Max(1) {
		return false
	}

	inside := 0
	layout := z.Geometry.Layout()
	for i := 0; i < z.Geometry.NumPolygons(); i++ {
		poly := z.Geometry.Polygon(i)
		for j := 0; j < poly.NumLinearRings(); j++ {
			switch xy.LocatePointInRing(layout, c, poly.LinearRing(j).FlatCoords()) {
			case location.Boundary:
				return false
			case location.Interior:
				inside++
			}
		}
	}
	return inside%2 == 1
}
