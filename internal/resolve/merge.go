package resolve

import (
	"github.com/sells-group/school-zone-cli/internal/model"
)

// mergeCandidates keeps one candidate per school code: the one whose status
// outranks all others, the earliest on a tie. Output follows first-seen
// order of codes.
func mergeCandidates(cands []model.Candidate) []model.Candidate {
	pos := make(map[string]int, len(cands))
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Code == "" || !c.Status.Valid() {
			continue
		}
		i, seen := pos[c.Code]
		if !seen {
			pos[c.Code] = len(out)
			out = append(out, c)
			continue
		}
		if c.Status.Outranks(out[i].Status) {
			out[i] = c
		}
	}
	return out
}
