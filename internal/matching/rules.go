package matching

import (
	"fmt"
	"strings"
)

type category struct {
	singular string
	plural   string
}

var (
	catIndustry = category{"industry", "industries"}
	catInterest = category{"interest", "interests"}
	catGoal     = category{"goal", "goals"}
)

// overlap is one category's contribution to the rule-based sub-score.
type overlap struct {
	cat    category
	shared []string
	// points on the rule-based 0-100 scale
	points float64
}

func (o overlap) reason() string {
	label := o.cat.singular
	if len(o.shared) > 1 {
		label = o.cat.plural
	}
	return fmt.Sprintf("Shared %s: %s", label, joinFirst(o.shared, 3))
}

// ruleBased scores the Jaccard overlap of industries, interests and goals.
// Both profiles must already be normalized.
func ruleBased(a, b *Profile, w CategoryWeights) (float64, []overlap) {
	var total float64
	out := make([]overlap, 0, 3)
	for _, c := range []struct {
		cat    category
		x, y   []string
		weight float64
	}{
		{catIndustry, a.Industries, b.Industries, w.Industries},
		{catInterest, a.Interests, b.Interests, w.Interests},
		{catGoal, a.Goals, b.Goals, w.Goals},
	} {
		j, shared := jaccard(c.x, c.y)
		pts := 100 * c.weight * j
		total += pts
		out = append(out, overlap{cat: c.cat, shared: shared, points: pts})
	}
	return total, out
}

// jaccard returns |a∩b| / |a∪b| and the sorted intersection. Inputs are sets
// in sorted order; an empty union yields 0.
func jaccard(a, b []string) (float64, []string) {
	if len(a) == 0 && len(b) == 0 {
		return 0, nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var shared []string
	for _, v := range a {
		if _, ok := inB[v]; ok {
			shared = append(shared, v)
		}
	}
	union := len(a) + len(b) - len(shared)
	return float64(len(shared)) / float64(union), shared
}

func joinFirst(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:n], ", ") + fmt.Sprintf(" (+%d more)", len(items)-n)
}
