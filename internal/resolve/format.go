package resolve

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sells-group/school-zone-cli/internal/model"
)

const earthRadiusMi = 3958.7613

const (
	programTypePathway   = "Districtwide Pathway"
	programTypeMagnet    = "Magnet Program"
	programTypeAcademies = "Academies of Louisville"
)

// haversineMi returns the great-circle distance in miles.
func haversineMi(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMi * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func distanceTo(s model.School, lat, lon float64) *float64 {
	if !s.HasCoordinates() {
		return nil
	}
	d := haversineMi(lat, lon, *s.Latitude, *s.Longitude)
	return &d
}

// annotate sets the display program type and list for an entry.
func annotate(e *model.Entry) {
	s := e.School
	switch e.Status {
	case model.StatusMagnetChoice:
		if progs := model.SplitPrograms(s.PathwayPrograms); len(progs) > 0 {
			e.ProgramType, e.Programs = programTypePathway, progs
		} else if progs := model.SplitPrograms(s.MagnetPrograms); len(progs) > 0 {
			e.ProgramType, e.Programs = programTypeMagnet, progs
		}
	case model.StatusAcademies, model.StatusReside:
		if progs := model.SplitPrograms(s.AcademyPrograms); len(progs) > 0 {
			e.ProgramType, e.Programs = programTypeAcademies, progs
		}
	}
}

// SortOptions controls ordering within each category.
type SortOptions struct {
	Key  string
	Desc bool
}

// sortField returns the value of a named field on an entry. Typed fields
// are matched by their JSON names before metadata. Eligibility flags sort
// as 0 or 1; empty program text counts as missing.
func sortField(e model.Entry, key string) (any, bool) {
	s := e.School
	switch key {
	case "distance_mi":
		if e.DistanceMi == nil {
			return nil, false
		}
		return *e.DistanceMi, true
	case "display_name":
		return s.DisplayName, s.DisplayName != ""
	case "school_code_adjusted":
		return s.Code, true
	case "gis_name":
		return s.GISName, s.GISName != ""
	case "school_level":
		return string(s.Level), true
	case "network":
		return s.NetworkValue(), s.Network != nil
	case "school_zone":
		return s.ZoneValue(), s.SchoolZone != nil
	case "latitude":
		if s.Latitude == nil {
			return nil, false
		}
		return *s.Latitude, true
	case "longitude":
		if s.Longitude == nil {
			return nil, false
		}
		return *s.Longitude, true
	case "feeder_to_high_school":
		if s.FeederToHighSchool == nil {
			return nil, false
		}
		return *s.FeederToHighSchool, true
	case "magnet_programs":
		return s.MagnetPrograms, s.MagnetPrograms != ""
	case "the_academies_of_louisville_programs":
		return s.AcademyPrograms, s.AcademyPrograms != ""
	case "explore_pathways_programs":
		return s.PathwayPrograms, s.PathwayPrograms != ""
	}
	for _, f := range model.AllFlags {
		if key == string(f) {
			if s.Flags.Has(f) {
				return 1, true
			}
			return 0, true
		}
	}
	v, ok := s.Metadata[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// compareValues orders numbers numerically and everything else as
// case-insensitive text.
func compareValues(a, b any) int {
	fa, okA := asFloat(a)
	fb, okB := asFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(
		strings.ToLower(fmt.Sprint(a)),
		strings.ToLower(fmt.Sprint(b)),
	)
}

func byName(a, b model.Entry) int {
	return strings.Compare(model.FoldKey(a.School.DisplayName), model.FoldKey(b.School.DisplayName))
}

// byDistance puts known distances first, nearest first, then names.
func byDistance(a, b model.Entry) int {
	switch {
	case a.DistanceMi != nil && b.DistanceMi == nil:
		return -1
	case a.DistanceMi == nil && b.DistanceMi != nil:
		return 1
	case a.DistanceMi != nil && b.DistanceMi != nil:
		if *a.DistanceMi < *b.DistanceMi {
			return -1
		}
		if *a.DistanceMi > *b.DistanceMi {
			return 1
		}
	}
	return byName(a, b)
}

// sortEntries orders one category. A caller key that is missing on any
// entry falls back to name ascending for the whole category.
func sortEntries(entries []model.Entry, opts SortOptions) {
	if opts.Key == "" {
		sort.SliceStable(entries, func(i, j int) bool { return byDistance(entries[i], entries[j]) < 0 })
		return
	}

	values := make([]any, len(entries))
	for i, e := range entries {
		v, ok := sortField(e, opts.Key)
		if !ok {
			sort.SliceStable(entries, func(i, j int) bool { return byName(entries[i], entries[j]) < 0 })
			return
		}
		values[i] = v
	}

	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c := compareValues(values[idx[i]], values[idx[j]])
		if opts.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return byName(entries[idx[i]], entries[idx[j]]) < 0
	})
	sorted := make([]model.Entry, len(entries))
	for i, k := range idx {
		sorted[i] = entries[k]
	}
	copy(entries, sorted)
}

// group buckets entries by category in the fixed category order, omitting
// empty categories.
func group(entries []model.Entry, opts SortOptions) []model.ZoneGroup {
	buckets := make(map[model.Category][]model.Entry)
	for _, e := range entries {
		buckets[e.Category] = append(buckets[e.Category], e)
	}

	groups := make([]model.ZoneGroup, 0, len(buckets))
	for _, c := range model.CategoryOrder {
		b := buckets[c]
		if len(b) == 0 {
			continue
		}
		sortEntries(b, opts)
		groups = append(groups, model.ZoneGroup{ZoneType: c, Schools: b})
	}
	return groups
}
