package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	"github.com/sells-group/school-zone-cli/internal/model"
)

// Column names of the schools table the engine reads directly. Every other
// column is carried in School.Metadata.
const (
	colCode            = "school_code_adjusted"
	colCodeFallback    = "school_code"
	colDisplayName     = "display_name"
	colLevel           = "school_level"
	colGISName         = "gis_name"
	colNetwork         = "network"
	colZone            = "zone"
	colSchoolZone      = "school_zone"
	colFeeder          = "feeder_to_high_school"
	colLatitude        = "latitude"
	colLongitude       = "longitude"
	colMagnetPrograms  = "magnet_programs"
	colAcademyPrograms = "the_academies_of_louisville_programs"
	colPathwayPrograms = "explore_pathways_programs"
	colExplorePathways = "explore_pathways"
)

// flagAliases lists, per flag, the columns consulted in order.
var flagAliases = map[model.Flag][]string{
	model.FlagUniversalMagnetSchool:  {string(model.FlagUniversalMagnetSchool)},
	model.FlagUniversalMagnetProgram: {string(model.FlagUniversalMagnetProgram)},
	model.FlagAcademies:              {string(model.FlagAcademies)},
	model.FlagDistrictwidePathways:   {string(model.FlagDistrictwidePathways), colExplorePathways},
	model.FlagChoiceZone:             {string(model.FlagChoiceZone)},
}

var typedColumns = func() map[string]bool {
	m := map[string]bool{
		colCode: true, colDisplayName: true, colLevel: true, colGISName: true,
		colNetwork: true, colZone: true, colSchoolZone: true, colFeeder: true,
		colLatitude: true, colLongitude: true, colMagnetPrograms: true,
		colAcademyPrograms: true, colPathwayPrograms: true, colExplorePathways: true,
	}
	for _, f := range model.AllFlags {
		m[string(f)] = true
	}
	return m
}()

// schoolFromRow maps a column-name keyed row into a School.
func schoolFromRow(row map[string]any) (model.School, error) {
	var s model.School

	s.Code = text(row[colCode])
	if s.Code == "" {
		s.Code = text(row[colCodeFallback])
	}
	s.DisplayName = text(row[colDisplayName])
	if s.Code == "" || s.DisplayName == "" {
		return s, eris.New("catalog: row missing code or display name")
	}

	lvl, ok := model.ParseLevel(text(row[colLevel]))
	if !ok {
		return s, eris.Errorf("catalog: school %s has unknown level %q", s.Code, text(row[colLevel]))
	}
	s.Level = lvl

	s.GISName = text(row[colGISName])
	s.Network = model.StringPtr(text(row[colNetwork]))
	s.SchoolZone = model.StringPtr(text(row[colZone]))
	if s.SchoolZone == nil {
		s.SchoolZone = model.StringPtr(text(row[colSchoolZone]))
	}
	s.FeederToHighSchool = model.StringPtr(text(row[colFeeder]))
	s.Latitude = number(row[colLatitude])
	s.Longitude = number(row[colLongitude])

	for flag, cols := range flagAliases {
		for _, c := range cols {
			if v, present := row[c]; present && v != nil {
				s.Flags.Set(flag, truthy(v))
				break
			}
		}
	}

	s.MagnetPrograms = text(row[colMagnetPrograms])
	s.AcademyPrograms = text(row[colAcademyPrograms])
	s.PathwayPrograms = text(row[colPathwayPrograms])

	s.Metadata = make(map[string]any, len(row))
	for k, v := range row {
		if typedColumns[k] {
			continue
		}
		s.Metadata[k] = plain(v)
	}
	return s, nil
}

// text renders a column value as trimmed text; NULL is "".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

type float64Valuer interface {
	Float64Value() (pgtype.Float8, error)
}

// number converts a column value to a float; NULL and unparseable text
// are nil.
func number(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		return &t
	case float32:
		f := float64(t)
		return &f
	case int64:
		f := float64(t)
		return &f
	case int32:
		f := float64(t)
		return &f
	case int:
		f := float64(t)
		return &f
	case float64Valuer:
		f8, err := t.Float64Value()
		if err != nil || !f8.Valid {
			return nil
		}
		return &f8.Float64
	}
	s := text(v)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// truthy interprets catalog flag values ("Yes", "Y", "1", "true", "x", 1).
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case int64:
		return t != 0
	case int32:
		return t != 0
	case int:
		return t != 0
	case float64:
		return t != 0
	}
	switch strings.ToLower(text(v)) {
	case "yes", "y", "true", "t", "1", "x":
		return true
	}
	return false
}

// plain converts driver-specific values into JSON-friendly ones.
func plain(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case float64Valuer:
		if f := number(t); f != nil {
			return *f
		}
		return nil
	}
	return v
}
