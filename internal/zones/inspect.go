package zones

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
)

// Inspection summarizes a shapefile for diagnostics.
type Inspection struct {
	Path      string              `json:"path"`
	ShapeType string              `json:"shape_type"`
	Fields    []string            `json:"fields"`
	Features  int                 `json:"features"`
	Polygons  int                 `json:"polygons"`
	Samples   []map[string]string `json:"samples"`
}

// Inspect reads a shapefile and returns its field names, feature counts and
// up to sample attribute rows.
func Inspect(path string, sample int) (*Inspection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "zones: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	names := fieldNames(reader)
	out := &Inspection{
		Path:      path,
		ShapeType: fmt.Sprint(reader.GeometryType),
		Fields:    names,
	}

	for reader.Next() {
		_, shape := reader.Shape()
		out.Features++
		if toMultiPolygon(shape) != nil {
			out.Polygons++
		}
		if len(out.Samples) < sample {
			row := make(map[string]string, len(names))
			for i, name := range names {
				row[name] = cleanAttribute(reader.Attribute(i))
			}
			out.Samples = append(out.Samples, row)
		}
	}
	return out, nil
}
