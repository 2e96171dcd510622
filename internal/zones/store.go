package zones

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/metrics"
	"github.com/sells-group/school-zone-cli/internal/model"
)

// LayerInfo describes a loaded layer.
type LayerInfo struct {
	Category model.ZoneCategory `json:"category"`
	Path     string             `json:"path"`
	Features int                `json:"features"`
}

// Store is an immutable set of zones with a bounding-box index. It is safe
// for concurrent reads.
type Store struct {
	zones  []*Zone
	index  Index
	layers []LayerInfo
	log    *zap.Logger
}

// NewStore indexes zones. Zone IDs are reassigned to their slice position.
func NewStore(zones []*Zone, layers ...LayerInfo) *Store {
	for i, z := range zones {
		z.ID = i
	}
	return &Store{
		zones:  zones,
		index:  newRTreeIndex(zones),
		layers: layers,
		log:    zap.L().With(zap.String("component", "zones.store")),
	}
}

// Len returns the number of zones.
func (s *Store) Len() int { return len(s.zones) }

// Layers returns the loaded layer summaries.
func (s *Store) Layers() []LayerInfo {
	out := make([]LayerInfo, len(s.layers))
	copy(out, s.layers)
	return out
}

// QueryContaining returns every zone whose polygon strictly contains p,
// ordered by zone ID. Index hits are refined with an exact test; if the
// index fails, every zone is scanned.
func (s *Store) QueryContaining(p Point) []*Zone {
	if s == nil || len(s.zones) == 0 || !p.Valid() {
		return nil
	}

	ids, err := s.index.Search(p)
	if err != nil {
		s.log.Warn("spatial index query failed, falling back to linear scan", zap.Error(err))
		metrics.IndexFallbacksTotal.Inc()
		return s.scan(p)
	}

	sort.Ints(ids)
	var out []*Zone
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(s.zones) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if z := s.zones[id]; z.Contains(p) {
			out = append(out, z)
		}
	}
	return out
}

func (s *Store) scan(p Point) []*Zone {
	var out []*Zone
	for _, z := range s.zones {
		if z.Contains(p) {
			out = append(out, z)
		}
	}
	return out
}
