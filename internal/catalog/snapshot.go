// Package catalog holds the school catalog: an immutable, indexed snapshot
// of school records loaded from SQLite or Postgres.
package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/school-zone-cli/internal/model"
)

// ErrEmptyCatalog is returned when a source yields no usable records.
var ErrEmptyCatalog = eris.New("catalog: no school records")

// Snapshot is a read-only view of the catalog. All lookups fail closed:
// an unknown or ambiguous key is reported as not found, never as an error.
type Snapshot struct {
	Version  string
	LoadedAt time.Time

	schools   []model.School
	byCode    map[string]int
	byGIS     map[string][]int
	byDisplay map[string][]int
	feeders   map[string][]int
}

// NewSnapshot indexes schools. Records without a code or display name are
// dropped; the first record wins on a duplicate code.
func NewSnapshot(schools []model.School) (*Snapshot, error) {
	log := zap.L().With(zap.String("component", "catalog.snapshot"))

	s := &Snapshot{
		Version:   uuid.New().String(),
		LoadedAt:  time.Now().UTC(),
		byCode:    make(map[string]int, len(schools)),
		byGIS:     make(map[string][]int, len(schools)),
		byDisplay: make(map[string][]int, len(schools)),
		feeders:   make(map[string][]int),
	}

	kept := make([]model.School, 0, len(schools))
	for _, sc := range schools {
		sc.Code = strings.TrimSpace(sc.Code)
		sc.DisplayName = strings.TrimSpace(sc.DisplayName)
		if sc.Code == "" || sc.DisplayName == "" {
			log.Warn("dropping school without code or display name", zap.String("code", sc.Code), zap.String("display_name", sc.DisplayName))
			continue
		}
		kept = append(kept, sc)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Code < kept[j].Code })

	for _, sc := range kept {
		if _, dup := s.byCode[sc.Code]; dup {
			log.Warn("duplicate school code, keeping first", zap.String("code", sc.Code))
			continue
		}
		i := len(s.schools)
		s.schools = append(s.schools, sc)
		s.byCode[sc.Code] = i

		if k := model.FoldKey(sc.GISName); k != "" {
			s.byGIS[k] = append(s.byGIS[k], i)
		}
		dk := model.FoldKey(sc.DisplayName)
		s.byDisplay[dk] = append(s.byDisplay[dk], i)
		if sc.Level == model.LevelElementary && sc.FeederToHighSchool != nil {
			fk := model.FoldKey(*sc.FeederToHighSchool)
			s.feeders[fk] = append(s.feeders[fk], i)
		}
	}

	if len(s.schools) == 0 {
		return nil, ErrEmptyCatalog
	}
	return s, nil
}

// Len returns the number of indexed schools.
func (s *Snapshot) Len() int { return len(s.schools) }

// All returns every school ordered by code.
func (s *Snapshot) All() []model.School {
	out := make([]model.School, len(s.schools))
	copy(out, s.schools)
	return out
}

// ResolveByGISName finds the single school whose gis_name matches name,
// ignoring case and surrounding whitespace. A non-empty hint restricts the
// match to that level. More than one remaining match is ambiguous and
// reported as not found.
func (s *Snapshot) ResolveByGISName(name string, hint model.Level) (model.School, bool) {
	var match []int
	for _, i := range s.byGIS[model.FoldKey(name)] {
		if hint == "" || s.schools[i].Level == hint {
			match = append(match, i)
		}
	}
	if len(match) != 1 {
		return model.School{}, false
	}
	return s.schools[match[0]], true
}

// ResolveFeeders resolves a high school GIS key to its display name, then
// returns every elementary school whose feeder_to_high_school names it.
func (s *Snapshot) ResolveFeeders(highSchoolGIS string) []model.School {
	hs, ok := s.ResolveByGISName(highSchoolGIS, model.LevelHigh)
	if !ok {
		return nil
	}
	idx := s.feeders[model.FoldKey(hs.DisplayName)]
	out := make([]model.School, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.schools[i])
	}
	return out
}

// FindByFlags returns every school with at least one of flags set.
func (s *Snapshot) FindByFlags(flags ...model.Flag) []model.School {
	var out []model.School
	for _, sc := range s.schools {
		for _, f := range flags {
			if sc.Flags.Has(f) {
				out = append(out, sc)
				break
			}
		}
	}
	return out
}

// GetDetails bulk-hydrates codes. Unknown codes are absent from the map.
func (s *Snapshot) GetDetails(codes []string) map[string]model.School {
	out := make(map[string]model.School, len(codes))
	for _, c := range codes {
		if i, ok := s.byCode[strings.TrimSpace(c)]; ok {
			out[s.schools[i].Code] = s.schools[i]
		}
	}
	return out
}

// Lookup finds a school by exact code, then by display name. A display
// name match is narrowed to hint when one is given and must leave exactly
// one record; a name shared across records is reported as not found.
func (s *Snapshot) Lookup(ref string, hint model.Level) (model.School, bool) {
	if i, ok := s.byCode[strings.TrimSpace(ref)]; ok {
		return s.schools[i], true
	}
	var match []int
	for _, i := range s.byDisplay[model.FoldKey(ref)] {
		if hint == "" || s.schools[i].Level == hint {
			match = append(match, i)
		}
	}
	if len(match) != 1 {
		return model.School{}, false
	}
	return s.schools[match[0]], true
}
