package tui

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jask/signalfromnoise/internal/wizard"
)

// rankRequests orders requests by how closely they match query. Substring
// hits rank first; otherwise the best word-level edit distance decides, and
// requests further than a third of the query length away are dropped.
func rankRequests(reqs []wizard.ProductionRequest, query string) []wizard.ProductionRequest {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return reqs
	}
	limit := len(query) / 3
	if limit < 1 {
		limit = 1
	}

	type scored struct {
		req   wizard.ProductionRequest
		score int
	}
	var out []scored
	for _, r := range reqs {
		score, ok := matchScore(r, query, limit)
		if ok {
			out = append(out, scored{req: r, score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score < out[j].score })

	res := make([]wizard.ProductionRequest, 0, len(out))
	for _, s := range out {
		res = append(res, s.req)
	}
	return res
}

func matchScore(r wizard.ProductionRequest, query string, limit int) (int, bool) {
	text := strings.ToLower(r.Title + " " + r.Description)
	if strings.Contains(text, query) {
		return 0, true
	}
	best := -1
	for _, word := range strings.Fields(text) {
		d := levenshtein.ComputeDistance(query, word)
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 || best > limit {
		return 0, false
	}
	return best, true
}
