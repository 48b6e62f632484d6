package matching

import (
	"fmt"
	"math"
	"sort"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

// Scorer computes match compatibility. It holds only immutable policy and is
// safe for concurrent use.
type Scorer struct {
	policy      Policy
	complements complementTable
}

// NewScorer validates p and builds a scorer around it.
func NewScorer(p Policy) (*Scorer, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("scoring policy: %w", err)
	}
	pairs := p.Complements
	if len(pairs) == 0 {
		pairs = DefaultComplements
	}
	return &Scorer{policy: p, complements: newComplementTable(pairs)}, nil
}

// DefaultScorer uses DefaultPolicy.
func DefaultScorer() *Scorer {
	s, err := NewScorer(DefaultPolicy())
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Scorer) Policy() Policy { return s.policy }

// NeutralBaseline is the score of a pair for which nothing is known: no
// overlap and every other sub-score at its neutral default.
func (s *Scorer) NeutralBaseline() int {
	w := s.policy.Weights
	n := float64(s.policy.NeutralScore)
	return clampScore(w.Semantic*n + w.Behavioral*n + w.Compatibility*n)
}

type signal struct {
	contribution float64
	text         string
}

// Score rates the pair. It is a pure function of its input: the same pair
// always yields the same Result, and (a,b) scores the same as (b,a).
func (s *Scorer) Score(pair Pair) (Result, error) {
	if pair.Subject == nil || pair.Candidate == nil {
		return Result{}, fmt.Errorf("both profiles are required: %w", svcErr.ErrInvalidInput)
	}
	a, b := pair.Subject.Normalized(), pair.Candidate.Normalized()
	if a.ID == "" || b.ID == "" {
		return Result{}, fmt.Errorf("profile id is required: %w", svcErr.ErrInvalidInput)
	}
	if a.ID == b.ID {
		return Result{}, fmt.Errorf("cannot match profile %s with itself: %w", a.ID, svcErr.ErrInvalidInput)
	}

	p := s.policy
	w := p.Weights
	neutral := float64(p.NeutralScore)

	rule, overlaps := ruleBased(&a, &b, p.Categories)
	sem, semMeasured, keywords := semantic(&a, &b, neutral)
	beh, behMeasured := behavioral(&a, &b, neutral)
	comp, compMeasured, links := compatibility(&a, &b, s.complements, neutral)

	bd := Breakdown{
		RuleBased:     clampScore(rule),
		Semantic:      clampScore(sem),
		Behavioral:    clampScore(beh),
		Compatibility: clampScore(comp),
	}
	score := clampScore(
		w.RuleBased*float64(bd.RuleBased) +
			w.Semantic*float64(bd.Semantic) +
			w.Behavioral*float64(bd.Behavioral) +
			w.Compatibility*float64(bd.Compatibility),
	)

	var signals []signal
	for _, o := range overlaps {
		if len(o.shared) > 0 {
			signals = append(signals, signal{w.RuleBased * o.points, o.reason()})
		}
	}
	if semMeasured && bd.Semantic >= p.ReasonThreshold {
		text := fmt.Sprintf("Similar profiles (%d%% semantic similarity)", bd.Semantic)
		if len(keywords) > 0 {
			text += ": " + joinFirst(keywords, 3)
		}
		signals = append(signals, signal{w.Semantic * float64(bd.Semantic), text})
	}
	if behMeasured && bd.Behavioral >= p.ReasonThreshold {
		signals = append(signals, signal{
			w.Behavioral * float64(bd.Behavioral),
			fmt.Sprintf("Active, responsive networkers (%d%% engagement)", bd.Behavioral),
		})
	}
	if compMeasured && bd.Compatibility >= p.ReasonThreshold {
		signals = append(signals, signal{
			w.Compatibility * float64(bd.Compatibility),
			compatibilityReason(links, bd.Compatibility),
		})
	}
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].contribution > signals[j].contribution
	})

	reasons := make([]string, 0, len(signals))
	for _, sg := range signals {
		reasons = append(reasons, sg.text)
	}

	return Result{
		Score:      score,
		Breakdown:  bd,
		Reasons:    reasons,
		Confidence: confidence(&a, &b, pair.SharedEvents),
	}, nil
}

// confidence: high when both profiles carry interests and goals and share an
// event; low when either carries neither; medium otherwise.
func confidence(a, b *Profile, sharedEvents int) Confidence {
	complete := func(p *Profile) bool { return len(p.Interests) > 0 && len(p.Goals) > 0 }
	partial := func(p *Profile) bool { return len(p.Interests) > 0 || len(p.Goals) > 0 }

	switch {
	case !partial(a) || !partial(b):
		return ConfidenceLow
	case complete(a) && complete(b) && sharedEvents >= 1:
		return ConfidenceHigh
	default:
		return ConfidenceMedium
	}
}

func clampScore(v float64) int {
	n := int(math.Round(v))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
