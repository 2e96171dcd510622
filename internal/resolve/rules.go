package resolve

import (
	"github.com/sells-group/school-zone-cli/internal/model"
	"github.com/sells-group/school-zone-cli/internal/zones"
)

type zoneAction int

const (
	// actionSchool resolves the zone key to one school.
	actionSchool zoneAction = iota
	// actionFeeders resolves the zone key to a high school and emits its
	// elementary feeders.
	actionFeeders
	// actionChoice marks the address as inside the choice area.
	actionChoice
)

type zoneRule struct {
	action zoneAction
	level  model.Level
	status model.Status
}

// zoneRules maps each layer category to how its matched zones become
// candidates. Attribute keys come from the zone's layer configuration.
var zoneRules = map[model.ZoneCategory]zoneRule{
	model.ZoneResideElementary:      {action: actionFeeders, level: model.LevelElementary, status: model.StatusReside},
	model.ZoneResideMiddle:          {action: actionSchool, level: model.LevelMiddle, status: model.StatusReside},
	model.ZoneResideHigh:            {action: actionSchool, level: model.LevelHigh, status: model.StatusReside},
	model.ZoneMagnetElementary:      {action: actionSchool, level: model.LevelElementary, status: model.StatusMagnetChoice},
	model.ZoneMagnetMiddle:          {action: actionSchool, level: model.LevelMiddle, status: model.StatusMagnetChoice},
	model.ZoneSpecialtyMagnetMiddle: {action: actionSchool, level: model.LevelMiddle, status: model.StatusMagnetChoice},
	model.ZoneMagnetHigh:            {action: actionSchool, level: model.LevelHigh, status: model.StatusMagnetChoice},
	model.ZoneChoice:                {action: actionChoice},
}

// home is the resident context derived from the matched reside-high zone.
type home struct {
	school   *model.School
	network  string
	zone     string
	inChoice bool
}

// zoneKey reads the identifying attribute of z, falling back to the
// default keys for its category when the zone carries none.
func zoneKey(z *zones.Zone) string {
	if len(z.Fields) > 0 {
		return z.Key()
	}
	return z.Attr(zones.DefaultFields[z.Category]...)
}

// resolveZones turns matched zones into candidates and the home context.
func (r *run) resolveZones(matched []*zones.Zone) {
	for _, z := range matched {
		rule, ok := zoneRules[z.Category]
		if !ok {
			r.gap("zone_category", z.Category, z.Layer, string(z.Category))
			continue
		}
		if rule.action == actionChoice {
			r.home.inChoice = true
			continue
		}

		key := zoneKey(z)
		if key == "" {
			r.gap("empty_attribute", z.Category, z.Layer, "")
			continue
		}
		source := "zone:" + string(z.Category)

		switch rule.action {
		case actionFeeders:
			feeders := r.data.Catalog.ResolveFeeders(key)
			if len(feeders) == 0 {
				r.gap("feeder", z.Category, z.Layer, key)
				continue
			}
			for _, s := range feeders {
				r.add(s.Code, model.CategoryFor(rule.status, model.LevelElementary), rule.status, source)
			}

		case actionSchool:
			s, ok := r.data.Catalog.ResolveByGISName(key, rule.level)
			if !ok {
				r.gap("gis_name", z.Category, z.Layer, key)
				continue
			}
			r.add(s.Code, model.CategoryFor(rule.status, rule.level), rule.status, source)
			if z.Category == model.ZoneResideHigh && r.home.school == nil {
				hs := s
				r.home.school = &hs
				r.home.network = hs.NetworkValue()
				r.home.zone = hs.ZoneValue()
			}
		}
	}
}
