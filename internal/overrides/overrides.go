// Package overrides loads the static satellite, zone-magnet and choice-zone
// tables keyed by reside-zone name.
package overrides

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/school-zone-cli/internal/model"
)

// ChoiceOption lists the reside-equivalent schools offered in a choice zone.
// Entries are school codes or display names.
type ChoiceOption struct {
	Elementary []string `yaml:"elementary"`
	Middle     []string `yaml:"middle"`
}

type file struct {
	Satellite     map[string][]string     `yaml:"satellite"`
	ZoneMagnets   map[string][]string     `yaml:"zone_magnets"`
	ChoiceOptions map[string]ChoiceOption `yaml:"choice_options"`
}

// Tables is an immutable set of override lookups. A nil *Tables behaves as
// empty.
type Tables struct {
	satellite map[string][]string
	magnets   map[string][]string
	choice    map[string]ChoiceOption
}

// Empty returns tables with no entries.
func Empty() *Tables {
	return &Tables{}
}

// Load reads override tables from a YAML file. An empty path yields empty
// tables.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Empty(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "overrides: read %s", path)
	}
	return Parse(data)
}

// Parse decodes override tables from YAML.
func Parse(data []byte) (*Tables, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "overrides: parse yaml")
	}

	t := &Tables{
		satellite: make(map[string][]string, len(f.Satellite)),
		magnets:   make(map[string][]string, len(f.ZoneMagnets)),
		choice:    make(map[string]ChoiceOption, len(f.ChoiceOptions)),
	}
	for zone, refs := range f.Satellite {
		k := model.FoldKey(zone)
		t.satellite[k] = append(t.satellite[k], refs...)
	}
	for zone, refs := range f.ZoneMagnets {
		k := model.FoldKey(zone)
		t.magnets[k] = append(t.magnets[k], refs...)
	}
	for zone, opt := range f.ChoiceOptions {
		k := model.FoldKey(zone)
		cur := t.choice[k]
		cur.Elementary = append(cur.Elementary, opt.Elementary...)
		cur.Middle = append(cur.Middle, opt.Middle...)
		t.choice[k] = cur
	}
	return t, nil
}

// Satellite returns the satellite elementary schools for a reside zone.
func (t *Tables) Satellite(zone string) []string {
	if t == nil {
		return nil
	}
	return t.satellite[model.FoldKey(zone)]
}

// ZoneMagnets returns the zone-specific magnet schools for a reside zone.
func (t *Tables) ZoneMagnets(zone string) []string {
	if t == nil {
		return nil
	}
	return t.magnets[model.FoldKey(zone)]
}

// ChoiceOptions returns the choice-zone school lists for a reside zone.
func (t *Tables) ChoiceOptions(zone string) ChoiceOption {
	if t == nil {
		return ChoiceOption{}
	}
	return t.choice[model.FoldKey(zone)]
}

// Zones returns the number of distinct reside zones with any entry.
func (t *Tables) Zones() int {
	if t == nil {
		return 0
	}
	seen := make(map[string]bool)
	for k := range t.satellite {
		seen[k] = true
	}
	for k := range t.magnets {
		seen[k] = true
	}
	for k := range t.choice {
		seen[k] = true
	}
	return len(seen)
}
