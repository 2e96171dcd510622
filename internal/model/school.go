package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// Level is the grade band a school serves.
type Level string

const (
	LevelElementary Level = "Elementary"
	LevelMiddle     Level = "Middle"
	LevelHigh       Level = "High"
)

// ParseLevel normalizes catalog school_level text ("Elementary School",
// "middle", "HIGH SCHOOL") into a Level. Unknown values return false.
func ParseLevel(s string) (Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "elementary"):
		return LevelElementary, true
	case strings.HasPrefix(s, "middle"):
		return LevelMiddle, true
	case strings.HasPrefix(s, "high"):
		return LevelHigh, true
	}
	return "", false
}

// Flag names a boolean eligibility column on the school catalog.
type Flag string

const (
	FlagUniversalMagnetSchool  Flag = "universal_magnet_traditional_school"
	FlagUniversalMagnetProgram Flag = "universal_magnet_traditional_program"
	FlagAcademies              Flag = "the_academies_of_louisville"
	FlagDistrictwidePathways   Flag = "districtwide_pathways"
	FlagChoiceZone             Flag = "choice_zone"
)

// AllFlags lists every eligibility flag the catalog carries.
var AllFlags = []Flag{
	FlagUniversalMagnetSchool,
	FlagUniversalMagnetProgram,
	FlagAcademies,
	FlagDistrictwidePathways,
	FlagChoiceZone,
}

// Flags holds the eligibility columns of a school record.
type Flags struct {
	UniversalMagnetSchool  bool `json:"universal_magnet_traditional_school"`
	UniversalMagnetProgram bool `json:"universal_magnet_traditional_program"`
	Academies              bool `json:"the_academies_of_louisville"`
	DistrictwidePathways   bool `json:"districtwide_pathways"`
	ChoiceZone             bool `json:"choice_zone"`
}

// Has reports whether the named flag is set.
func (f Flags) Has(flag Flag) bool {
	switch flag {
	case FlagUniversalMagnetSchool:
		return f.UniversalMagnetSchool
	case FlagUniversalMagnetProgram:
		return f.UniversalMagnetProgram
	case FlagAcademies:
		return f.Academies
	case FlagDistrictwidePathways:
		return f.DistrictwidePathways
	case FlagChoiceZone:
		return f.ChoiceZone
	}
	return false
}

// Set assigns the named flag. Unknown flags are ignored.
func (f *Flags) Set(flag Flag, v bool) {
	switch flag {
	case FlagUniversalMagnetSchool:
		f.UniversalMagnetSchool = v
	case FlagUniversalMagnetProgram:
		f.UniversalMagnetProgram = v
	case FlagAcademies:
		f.Academies = v
	case FlagDistrictwidePathways:
		f.DistrictwidePathways = v
	case FlagChoiceZone:
		f.ChoiceZone = v
	}
}

// School is a canonical catalog record keyed by Code.
type School struct {
	Code               string   `json:"school_code_adjusted"`
	DisplayName        string   `json:"display_name"`
	Level              Level    `json:"school_level"`
	GISName            string   `json:"gis_name"`
	Network            *string  `json:"network"`
	SchoolZone         *string  `json:"school_zone"`
	FeederToHighSchool *string  `json:"feeder_to_high_school"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Flags

	// Program text columns; comma separated in the catalog.
	MagnetPrograms  string `json:"magnet_programs,omitempty"`
	AcademyPrograms string `json:"the_academies_of_louisville_programs,omitempty"`
	PathwayPrograms string `json:"explore_pathways_programs,omitempty"`

	// Metadata carries descriptive columns the engine never branches on.
	Metadata map[string]any `json:"-"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (s *School) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// NetworkValue returns the network or "" when null.
func (s *School) NetworkValue() string {
	if s.Network == nil {
		return ""
	}
	return *s.Network
}

// ZoneValue returns the school_zone or "" when null.
func (s *School) ZoneValue() string {
	if s.SchoolZone == nil {
		return ""
	}
	return *s.SchoolZone
}

// StringPtr returns a pointer to s, or nil for blank input.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}

// FoldKey normalizes a name for case-insensitive, whitespace-trimmed lookup.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
