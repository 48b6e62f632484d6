package matching_test

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/matching"
)

func profileA() *matching.Profile {
	return &matching.Profile{
		ID:         "a",
		Industries: []string{"Tech"},
		Interests:  []string{"AI"},
		Goals:      []string{"Find Partner"},
	}
}

func profileB() *matching.Profile {
	return &matching.Profile{
		ID:         "b",
		Industries: []string{"Tech"},
		Interests:  []string{"AI", "Blockchain"},
		Goals:      []string{"Offer Partnership"},
	}
}

func hasReasonWithPrefix(reasons []string, prefix string) bool {
	for _, r := range reasons {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

func TestScore_PopulatedPairScenario(t *testing.T) {
	s := matching.DefaultScorer()

	res, err := s.Score(matching.Pair{Subject: profileA(), Candidate: profileB(), EventID: "E123", SharedEvents: 1})
	require.NoError(t, err)

	// industry J=1 (40) + interest J=0.5 (15)
	assert.Equal(t, 55, res.Breakdown.RuleBased)
	assert.Equal(t, 100, res.Breakdown.Compatibility)
	assert.Equal(t, 50, res.Breakdown.Behavioral)
	assert.Greater(t, res.Breakdown.Semantic, 0)
	assert.Equal(t, matching.ConfidenceHigh, res.Confidence)

	assert.True(t, hasReasonWithPrefix(res.Reasons, "Shared industry: tech"), res.Reasons)
	assert.True(t, hasReasonWithPrefix(res.Reasons, "Shared interest: ai"), res.Reasons)
	assert.True(t, hasReasonWithPrefix(res.Reasons, "Complementary goals: find partner ↔ offer partnership"), res.Reasons)
}

func TestScore_EmptyVersusPopulated(t *testing.T) {
	s := matching.DefaultScorer()
	c := &matching.Profile{ID: "c"}
	d := &matching.Profile{
		ID:         "d",
		Industries: []string{"Finance"},
		Interests:  []string{"Investing"},
		Goals:      []string{"Seek Investment"},
	}

	res, err := s.Score(matching.Pair{Subject: c, Candidate: d, EventID: "E1", SharedEvents: 1})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Breakdown.RuleBased)
	assert.Equal(t, 50, res.Breakdown.Semantic)
	assert.Equal(t, matching.ConfidenceLow, res.Confidence)
	assert.Empty(t, res.Reasons)
	assert.Equal(t, s.NeutralBaseline(), res.Score)
}

func TestScore_BothEmptyUsesNeutralDefaults(t *testing.T) {
	s := matching.DefaultScorer()

	res, err := s.Score(matching.Pair{
		Subject:   &matching.Profile{ID: "x", Industries: []string{"Tech"}},
		Candidate: &matching.Profile{ID: "y"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Breakdown.RuleBased)
	assert.Equal(t, 50, res.Breakdown.Semantic)
	assert.Equal(t, 50, res.Breakdown.Behavioral)
	assert.Equal(t, 50, res.Breakdown.Compatibility)
	assert.Equal(t, matching.ConfidenceLow, res.Confidence)
}

func TestScore_InvalidInput(t *testing.T) {
	s := matching.DefaultScorer()

	cases := map[string]matching.Pair{
		"nil subject":   {Candidate: profileB()},
		"nil candidate": {Subject: profileA()},
		"self pair":     {Subject: profileA(), Candidate: profileA()},
		"blank id":      {Subject: &matching.Profile{ID: "  "}, Candidate: profileB()},
	}
	for name, pair := range cases {
		_, err := s.Score(pair)
		assert.ErrorIs(t, err, svcErr.ErrInvalidInput, name)
	}
}

func TestScore_NormalizesTags(t *testing.T) {
	s := matching.DefaultScorer()
	a := &matching.Profile{ID: "a", Industries: []string{" TECH ", "tech", "Tech"}}
	b := &matching.Profile{ID: "b", Industries: []string{"tech"}}

	res, err := s.Score(matching.Pair{Subject: a, Candidate: b})
	require.NoError(t, err)
	assert.Equal(t, 40, res.Breakdown.RuleBased)
}

func TestScore_ComplementaryBeatsIdenticalGoals(t *testing.T) {
	s := matching.DefaultScorer()
	seeker := &matching.Profile{ID: "s", Goals: []string{"seeking mentor"}}
	mentor := &matching.Profile{ID: "m", Goals: []string{"offering mentorship"}}
	peer := &matching.Profile{ID: "p", Goals: []string{"seeking mentor"}}

	complementary, err := s.Score(matching.Pair{Subject: seeker, Candidate: mentor})
	require.NoError(t, err)
	identical, err := s.Score(matching.Pair{Subject: seeker, Candidate: peer})
	require.NoError(t, err)

	assert.Greater(t, complementary.Breakdown.Compatibility, identical.Breakdown.Compatibility)
}

func TestScore_BehavioralUsesActivity(t *testing.T) {
	s := matching.DefaultScorer()
	active := &matching.Profile{ID: "a", Activity: &matching.ActivitySignals{
		MatchesReceived: 10, MatchesResponded: 10, MatchesAccepted: 10, EventsJoined: 4, EventsCheckedIn: 4,
	}}
	newcomer := &matching.Profile{ID: "b"}

	res, err := s.Score(matching.Pair{Subject: active, Candidate: newcomer})
	require.NoError(t, err)

	// (1.0 + 0.5) / 2
	assert.Equal(t, 75, res.Breakdown.Behavioral)
	assert.True(t, hasReasonWithPrefix(res.Reasons, "Active, responsive networkers"), res.Reasons)
}

func TestScore_ReasonsOrderedByContribution(t *testing.T) {
	s := matching.DefaultScorer()
	res, err := s.Score(matching.Pair{Subject: profileA(), Candidate: profileB(), SharedEvents: 1})
	require.NoError(t, err)

	// compatibility (0.20*100=20) outranks industry (0.35*40=14) outranks interest (0.35*15)
	require.GreaterOrEqual(t, len(res.Reasons), 3)
	assert.True(t, strings.HasPrefix(res.Reasons[0], "Complementary goals"), res.Reasons)
	assert.Less(t, indexOfPrefix(res.Reasons, "Shared industry"), indexOfPrefix(res.Reasons, "Shared interest"))
}

func indexOfPrefix(reasons []string, prefix string) int {
	for i, r := range reasons {
		if strings.HasPrefix(r, prefix) {
			return i
		}
	}
	return math.MaxInt
}

// --- property checks over random profiles ---

var (
	tagPool  = []string{"Tech", "Finance", "AI", "Blockchain", "Health", "Retail", "Energy", "Design", "Marketing"}
	goalPool = []string{"find partner", "offer partnership", "hiring", "job seeking", "seek investment",
		"invest in startups", "seeking mentor", "offering mentorship", "learn"}
	bioPool = []string{"", "Building AI tools for retail", "Investor in early stage fintech",
		"Designer who loves health tech", "Marketing lead, blockchain curious"}
)

func pick(r *rand.Rand, pool []string) []string {
	n := r.Intn(4)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pool[r.Intn(len(pool))])
	}
	return out
}

func randomProfile(r *rand.Rand, id string) *matching.Profile {
	p := &matching.Profile{
		ID:         id,
		Industries: pick(r, tagPool),
		Interests:  pick(r, tagPool),
		Goals:      pick(r, goalPool),
		Bio:        bioPool[r.Intn(len(bioPool))],
	}
	if r.Intn(2) == 0 {
		p.Activity = &matching.ActivitySignals{
			MatchesReceived:  r.Intn(10),
			MatchesResponded: r.Intn(10),
			MatchesAccepted:  r.Intn(10),
			EventsJoined:     r.Intn(5),
			EventsCheckedIn:  r.Intn(5),
		}
	}
	return p
}

func TestScore_Properties(t *testing.T) {
	s := matching.DefaultScorer()
	w := s.Policy().Weights
	baseline := s.NeutralBaseline()
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		a := randomProfile(r, fmt.Sprintf("a%d", i))
		b := randomProfile(r, fmt.Sprintf("b%d", i))
		shared := r.Intn(3)

		ab, err := s.Score(matching.Pair{Subject: a, Candidate: b, SharedEvents: shared})
		require.NoError(t, err)
		again, err := s.Score(matching.Pair{Subject: a, Candidate: b, SharedEvents: shared})
		require.NoError(t, err)
		ba, err := s.Score(matching.Pair{Subject: b, Candidate: a, SharedEvents: shared})
		require.NoError(t, err)

		// determinism
		assert.Equal(t, ab, again)
		// symmetry of the number, not of the explanation
		assert.Equal(t, ab.Score, ba.Score, "a=%+v b=%+v", a, b)
		assert.Equal(t, ab.Breakdown, ba.Breakdown)
		assert.Equal(t, ab.Confidence, ba.Confidence)

		// bounds
		assert.GreaterOrEqual(t, ab.Score, 0)
		assert.LessOrEqual(t, ab.Score, 100)
		for _, v := range []int{ab.Breakdown.RuleBased, ab.Breakdown.Semantic, ab.Breakdown.Behavioral, ab.Breakdown.Compatibility} {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 100)
		}

		// score is the rounded weighted sum of the breakdown
		want := int(math.Round(w.RuleBased*float64(ab.Breakdown.RuleBased) +
			w.Semantic*float64(ab.Breakdown.Semantic) +
			w.Behavioral*float64(ab.Breakdown.Behavioral) +
			w.Compatibility*float64(ab.Breakdown.Compatibility)))
		assert.Equal(t, want, ab.Score)

		// anything above the all-neutral baseline, or any overlap, is explained
		if ab.Score > baseline || ab.Breakdown.RuleBased > 0 {
			assert.NotEmpty(t, ab.Reasons, "score=%d breakdown=%+v", ab.Score, ab.Breakdown)
		}
	}
}

func TestScore_ConcurrentUse(t *testing.T) {
	s := matching.DefaultScorer()
	want, err := s.Score(matching.Pair{Subject: profileA(), Candidate: profileB(), SharedEvents: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Score(matching.Pair{Subject: profileA(), Candidate: profileB(), SharedEvents: 1})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestNewScorer_RejectsBadWeights(t *testing.T) {
	p := matching.DefaultPolicy()
	p.Weights.RuleBased = 0.5
	_, err := matching.NewScorer(p)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	p = matching.DefaultPolicy()
	p.Categories.Goals = -0.1
	_, err = matching.NewScorer(p)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
}

func TestNewScorer_CustomComplements(t *testing.T) {
	p := matching.DefaultPolicy()
	p.Complements = [][2]string{{"Need Designer", "Offer Design"}}
	s, err := matching.NewScorer(p)
	require.NoError(t, err)

	res, err := s.Score(matching.Pair{
		Subject:   &matching.Profile{ID: "a", Goals: []string{"need designer"}},
		Candidate: &matching.Profile{ID: "b", Goals: []string{"offer design"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Breakdown.Compatibility)
}
