package zones

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/school-zone-cli/internal/metrics"
	"github.com/sells-group/school-zone-cli/internal/model"
)

// ErrNoLayers is returned by Load when no layer could be read.
var ErrNoLayers = eris.New("zones: no layers loaded")

// ErrProjectedLayer marks a layer whose .prj describes a projected CRS.
// Such layers are not reprojected and are skipped by Load.
var ErrProjectedLayer = eris.New("zones: layer is not in geographic coordinates")

// maxParallelLayers bounds concurrent shapefile reads.
const maxParallelLayers = 4

// LayerConfig names a shapefile and the zone category it represents.
type LayerConfig struct {
	Category model.ZoneCategory `yaml:"category" mapstructure:"category"`
	Path     string             `yaml:"path" mapstructure:"path"`
	// Fields overrides the attribute keys read for the zone key.
	Fields []string `yaml:"fields" mapstructure:"fields"`
}

// DefaultFields are the attribute keys each layer category is read with,
// in fallback order.
var DefaultFields = map[model.ZoneCategory][]string{
	model.ZoneChoice:                {"Name"},
	model.ZoneResideHigh:            {"High"},
	model.ZoneResideMiddle:          {"Middle", "Name"},
	model.ZoneResideElementary:      {"High"},
	model.ZoneMagnetHigh:            {"Traditiona"},
	model.ZoneMagnetMiddle:          {"Traditiona"},
	model.ZoneMagnetElementary:      {"Traditiona"},
	model.ZoneSpecialtyMagnetMiddle: {"Traditiona", "Name"},
}

// DefaultLayers returns the standard district layer set rooted at dataDir.
// The district ships no standard file for the specialty magnet middle
// layer; configure it explicitly under zones.layers when one is available.
func DefaultLayers(dataDir string) []LayerConfig {
	return []LayerConfig{
		{Category: model.ZoneChoice, Path: filepath.Join(dataDir, "ChoiceZone", "ChoiceZone.shp")},
		{Category: model.ZoneResideHigh, Path: filepath.Join(dataDir, "High", "Resides_HS_Boundaries.shp")},
		{Category: model.ZoneResideMiddle, Path: filepath.Join(dataDir, "Middle", "Resides_MS_Boundaries.shp")},
		{Category: model.ZoneResideElementary, Path: filepath.Join(dataDir, "Elementary", "Resides_ES_Clusters_Boundaries.shp")},
		{Category: model.ZoneMagnetHigh, Path: filepath.Join(dataDir, "TraditionalHigh", "Traditional_HS_Bnds.shp")},
		{Category: model.ZoneMagnetMiddle, Path: filepath.Join(dataDir, "TraditionalMiddle", "Traditional_MS_Bnds.shp")},
		{Category: model.ZoneMagnetElementary, Path: filepath.Join(dataDir, "TraditionalElementary", "Traditional_ES_Bnds.shp")},
	}
}

// Load reads every configured layer concurrently and indexes the result.
// A layer that fails to load is skipped with a warning; Load fails only if
// no layer loads.
func Load(ctx context.Context, layers []LayerConfig) (*Store, error) {
	log := zap.L().With(zap.String("component", "zones.loader"))

	loaded := make([][]*Zone, len(layers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLayers)

	for i, lc := range layers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			zs, err := loadLayer(lc)
			if err != nil {
				log.Warn("skipping zone layer",
					zap.String("category", string(lc.Category)),
					zap.String("path", lc.Path),
					zap.Error(err),
				)
				return nil
			}
			loaded[i] = zs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "zones: load layers")
	}

	var all []*Zone
	var infos []LayerInfo
	for i, zs := range loaded {
		if zs == nil {
			continue
		}
		all = append(all, zs...)
		infos = append(infos, LayerInfo{Category: layers[i].Category, Path: layers[i].Path, Features: len(zs)})
		metrics.ZonesLoaded.WithLabelValues(string(layers[i].Category)).Set(float64(len(zs)))
	}
	if len(infos) == 0 {
		return nil, ErrNoLayers
	}

	log.Info("zone layers loaded", zap.Int("layers", len(infos)), zap.Int("zones", len(all)))
	return NewStore(all, infos...), nil
}

func loadLayer(lc LayerConfig) ([]*Zone, error) {
	if !lc.Category.Valid() {
		return nil, eris.Errorf("zones: unknown layer category %q", lc.Category)
	}

	reader, err := shp.Open(lc.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "zones: open shapefile %s", lc.Path)
	}
	defer func() { _ = reader.Close() }()

	if err := checkProjection(lc.Path); err != nil {
		return nil, err
	}

	fields := lc.Fields
	if len(fields) == 0 {
		fields = DefaultFields[lc.Category]
	}
	names := fieldNames(reader)
	layer := strings.TrimSuffix(filepath.Base(lc.Path), filepath.Ext(lc.Path))

	var zones []*Zone
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		mp := toMultiPolygon(shape)
		if mp == nil {
			skipped++
			continue
		}
		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = cleanAttribute(reader.Attribute(i))
		}
		zones = append(zones, NewZone(lc.Category, layer, mp, attrs, fields))
	}

	if skipped > 0 {
		zap.L().Debug("zones: skipped non-polygon records",
			zap.String("layer", layer),
			zap.Int("skipped", skipped),
		)
	}
	if len(zones) == 0 {
		return nil, eris.Errorf("zones: layer %s has no polygon features", layer)
	}
	return zones, nil
}

func fieldNames(reader *shp.Reader) []string {
	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}
	return names
}

func cleanAttribute(v string) string {
	return strings.TrimSpace(strings.TrimRight(v, "\x00"))
}

// checkProjection rejects a layer whose .prj describes a projected CRS.
// Coordinates are read as lon/lat, so a missing .prj is accepted.
func checkProjection(shpPath string) error {
	prj := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prj)
	if err != nil {
		return nil
	}
	if strings.HasPrefix(strings.TrimSpace(strings.ToUpper(string(data))), "PROJCS") {
		return eris.Wrapf(ErrProjectedLayer, "zones: %s", prj)
	}
	return nil
}
