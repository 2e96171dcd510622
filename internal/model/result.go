package model

import (
	"encoding/json"
	"strings"
)

// Candidate is a transient assignment produced by one resolution source.
type Candidate struct {
	Code     string
	Category Category
	Status   Status
	Source   string
}

// Entry is a school in the final result.
type Entry struct {
	School      School
	Status      Status
	Category    Category
	DistanceMi  *float64
	ProgramType string
	Programs    []string
}

// MarshalJSON flattens the school record, its metadata bag and the display
// annotations into one object. Typed fields win over metadata keys.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.School.Metadata)+20)
	for k, v := range e.School.Metadata {
		out[k] = v
	}

	typed, err := json.Marshal(e.School)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		out[k] = v
	}

	out["distance_mi"] = e.DistanceMi
	out["display_status"] = e.Status.String()
	if e.ProgramType != "" {
		out["display_program_type"] = e.ProgramType
	} else {
		out["display_program_type"] = nil
	}
	if len(e.Programs) > 0 {
		out["display_programs"] = e.Programs
	} else {
		out["display_programs"] = nil
	}
	return json.Marshal(out)
}

// ZoneGroup is one category of results.
type ZoneGroup struct {
	ZoneType Category `json:"zone_type"`
	Schools  []Entry  `json:"schools"`
}

// Result is the categorized output of a resolution.
type Result struct {
	ResultsByZone  []ZoneGroup `json:"results_by_zone"`
	IsInChoiceZone bool        `json:"is_in_choice_zone"`
}

// EmptyResult returns a result with no groups.
func EmptyResult() Result {
	return Result{ResultsByZone: []ZoneGroup{}}
}

// Codes returns every school code in result order.
func (r Result) Codes() []string {
	var codes []string
	for _, g := range r.ResultsByZone {
		for _, e := range g.Schools {
			codes = append(codes, e.School.Code)
		}
	}
	return codes
}

// Group returns the group for a category, or nil.
func (r Result) Group(c Category) *ZoneGroup {
	for i := range r.ResultsByZone {
		if r.ResultsByZone[i].ZoneType == c {
			return &r.ResultsByZone[i]
		}
	}
	return nil
}

// SplitPrograms splits a comma or semicolon separated program list,
// trimming blanks.
func SplitPrograms(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
