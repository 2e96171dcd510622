package model

import (
	"encoding/json"
	"fmt"
)

// Status is the assignment label attached to a resolved school. Lower
// values take precedence when the same school is reached more than once.
type Status int

const (
	StatusUnknown Status = iota
	StatusAcademies
	StatusMagnetChoice
	StatusSatellite
	StatusReside
)

var statusLabels = map[Status]string{
	StatusAcademies:    "Academies of Louisville",
	StatusMagnetChoice: "Magnet/Choice Program",
	StatusSatellite:    "Satellite School",
	StatusReside:       "Reside",
}

// String returns the display label.
func (s Status) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Outranks reports whether s wins over other in a merge.
func (s Status) Outranks(other Status) bool {
	if !s.Valid() {
		return false
	}
	if !other.Valid() {
		return true
	}
	return s < other
}

// MarshalJSON encodes the status as its display label.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// ParseStatus maps a display label back to a Status.
func ParseStatus(label string) (Status, bool) {
	for s, l := range statusLabels {
		if l == label {
			return s, true
		}
	}
	return StatusUnknown, false
}

// Category is an output grouping of resolved schools.
type Category string

const (
	CategoryElementary       Category = "Elementary"
	CategoryMiddle           Category = "Middle"
	CategoryHigh             Category = "High"
	CategoryMagnetElementary Category = "Traditional/Magnet Elementary"
	CategoryMagnetMiddle     Category = "Traditional/Magnet Middle"
	CategoryMagnetHigh       Category = "Traditional/Magnet High"
)

// CategoryOrder is the fixed emission order of result groups.
var CategoryOrder = []Category{
	CategoryElementary,
	CategoryMiddle,
	CategoryHigh,
	CategoryMagnetElementary,
	CategoryMagnetMiddle,
	CategoryMagnetHigh,
}

// ResideCategory returns the plain category for a level.
func ResideCategory(l Level) Category {
	return Category(l)
}

// MagnetCategory returns the Traditional/Magnet category for a level.
func MagnetCategory(l Level) Category {
	return Category("Traditional/Magnet " + string(l))
}

// CategoryFor derives the output category from a winning status and the
// school's level. Reside maps to the plain level; everything else maps to
// Traditional/Magnet.
func CategoryFor(s Status, l Level) Category {
	if s == StatusReside {
		return ResideCategory(l)
	}
	return MagnetCategory(l)
}

// ZoneCategory tags a polygon layer.
type ZoneCategory string

const (
	ZoneChoice                ZoneCategory = "choice"
	ZoneResideHigh            ZoneCategory = "reside_high"
	ZoneResideMiddle          ZoneCategory = "reside_middle"
	ZoneResideElementary      ZoneCategory = "reside_elementary_cluster"
	ZoneMagnetHigh            ZoneCategory = "magnet_high"
	ZoneMagnetMiddle          ZoneCategory = "magnet_middle"
	ZoneMagnetElementary      ZoneCategory = "magnet_elementary"
	ZoneSpecialtyMagnetMiddle ZoneCategory = "specialty_magnet_middle"
)

// ZoneCategories lists every known layer tag.
var ZoneCategories = []ZoneCategory{
	ZoneChoice,
	ZoneResideHigh,
	ZoneResideMiddle,
	ZoneResideElementary,
	ZoneMagnetHigh,
	ZoneMagnetMiddle,
	ZoneMagnetElementary,
	ZoneSpecialtyMagnetMiddle,
}

// Valid reports whether z is a known layer tag.
func (z ZoneCategory) Valid() bool {
	for _, c := range ZoneCategories {
		if c == z {
			return true
		}
	}
	return false
}
