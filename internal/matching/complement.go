package matching

import "fmt"

// DefaultComplements pairs goals where one side seeks what the other offers.
// The relation is symmetric.
var DefaultComplements = [][2]string{
	{"find partner", "offer partnership"},
	{"find co-founder", "offer partnership"},
	{"seek investment", "invest in startups"},
	{"find investors", "invest in startups"},
	{"investor", "startup to fund"},
	{"seeking mentor", "offering mentorship"},
	{"find mentor", "offer mentorship"},
	{"hiring", "job seeking"},
	{"find talent", "job seeking"},
	{"find clients", "find service providers"},
	{"seek advice", "offer advice"},
	{"find sponsors", "sponsor events"},
}

const identicalGoalCredit = 0.5

type complementTable map[string]map[string]struct{}

func newComplementTable(pairs [][2]string) complementTable {
	t := make(complementTable, len(pairs)*2)
	add := func(x, y string) {
		if t[x] == nil {
			t[x] = make(map[string]struct{})
		}
		t[x][y] = struct{}{}
	}
	for _, p := range pairs {
		x, y := normalizeTag(p[0]), normalizeTag(p[1])
		if x == "" || y == "" || x == y {
			continue
		}
		add(x, y)
		add(y, x)
	}
	return t
}

func (t complementTable) complementary(x, y string) bool {
	_, ok := t[x][y]
	return ok
}

type goalLink struct {
	from, to string
}

// compatibility rewards goals that complete each other (1.0 per pair) above
// plain identical goals (0.5 each), relative to the smaller goal set.
// Either goal set empty yields the neutral score, unmeasured.
func compatibility(a, b *Profile, t complementTable, neutral float64) (float64, bool, []goalLink) {
	if len(a.Goals) == 0 || len(b.Goals) == 0 {
		return neutral, false, nil
	}

	var links []goalLink
	for _, x := range a.Goals {
		for _, y := range b.Goals {
			if t.complementary(x, y) {
				links = append(links, goalLink{x, y})
			}
		}
	}
	_, identical := jaccard(a.Goals, b.Goals)

	denom := len(a.Goals)
	if len(b.Goals) < denom {
		denom = len(b.Goals)
	}
	raw := (float64(len(links)) + identicalGoalCredit*float64(len(identical))) / float64(denom)
	if raw > 1 {
		raw = 1
	}
	return 100 * raw, true, links
}

func compatibilityReason(links []goalLink, score int) string {
	if len(links) == 0 {
		return fmt.Sprintf("Aligned networking goals (%d%% compatibility)", score)
	}
	l := links[0]
	msg := fmt.Sprintf("Complementary goals: %s ↔ %s", l.from, l.to)
	if len(links) > 1 {
		msg += fmt.Sprintf(" (+%d more)", len(links)-1)
	}
	return msg
}
