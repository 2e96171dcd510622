package resolve

import (
	"github.com/sells-group/school-zone-cli/internal/model"
)

// flagRule is one step of district-wide eligibility. Rules are evaluated
// in order and the first that applies decides the status.
type flagRule struct {
	name    string
	status  model.Status
	applies func(s model.School, h home) bool
}

var flagRules = []flagRule{
	{
		name:   "districtwide_pathways",
		status: model.StatusMagnetChoice,
		applies: func(s model.School, _ home) bool {
			return s.DistrictwidePathways
		},
	},
	{
		name:   "academies_network",
		status: model.StatusAcademies,
		applies: func(s model.School, h home) bool {
			return s.Academies && h.network != "" && s.Network != nil && *s.Network == h.network
		},
	},
	{
		name:   "universal_magnet",
		status: model.StatusMagnetChoice,
		applies: func(s model.School, h home) bool {
			if s.UniversalMagnetSchool || s.UniversalMagnetProgram {
				return true
			}
			return s.Level == model.LevelElementary && s.ChoiceZone && h.inChoice
		},
	},
}

// universalFlags are queried for every address.
var universalFlags = []model.Flag{
	model.FlagUniversalMagnetSchool,
	model.FlagUniversalMagnetProgram,
	model.FlagAcademies,
	model.FlagDistrictwidePathways,
}

// applyOverrides adds satellite, zone-magnet and choice-option candidates
// for the home reside zone.
func (r *run) applyOverrides() {
	if r.home.zone == "" {
		return
	}
	tables := r.data.Overrides

	for _, ref := range tables.Satellite(r.home.zone) {
		r.addRef(ref, model.LevelElementary, model.CategoryMagnetElementary, model.StatusSatellite, "override:satellite")
	}
	for _, ref := range tables.ZoneMagnets(r.home.zone) {
		r.addRef(ref, model.LevelElementary, model.CategoryMagnetElementary, model.StatusMagnetChoice, "override:zone_magnet")
	}
	if !r.home.inChoice {
		return
	}
	opt := tables.ChoiceOptions(r.home.zone)
	for _, ref := range opt.Elementary {
		r.addRef(ref, model.LevelElementary, model.CategoryElementary, model.StatusReside, "override:choice_elementary")
	}
	for _, ref := range opt.Middle {
		r.addRef(ref, model.LevelMiddle, model.CategoryMiddle, model.StatusReside, "override:choice_middle")
	}
}

// applyFlags adds district-wide and network-scoped candidates.
func (r *run) applyFlags() {
	flags := universalFlags
	if r.home.inChoice {
		flags = append(append([]model.Flag{}, universalFlags...), model.FlagChoiceZone)
	}

	for _, s := range r.data.Catalog.FindByFlags(flags...) {
		for _, rule := range flagRules {
			if rule.applies(s, r.home) {
				r.add(s.Code, model.MagnetCategory(s.Level), rule.status, "flag:"+rule.name)
				break
			}
		}
	}
}
