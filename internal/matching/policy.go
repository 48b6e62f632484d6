package matching

import (
	"fmt"
	"math"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

// Weights combine the four sub-scores into the final score.
type Weights struct {
	RuleBased     float64
	Semantic      float64
	Behavioral    float64
	Compatibility float64
}

func (w Weights) sum() float64 {
	return w.RuleBased + w.Semantic + w.Behavioral + w.Compatibility
}

// CategoryWeights combine the per-category overlaps of the rule-based sub-score.
type CategoryWeights struct {
	Industries float64
	Interests  float64
	Goals      float64
}

func (c CategoryWeights) sum() float64 {
	return c.Industries + c.Interests + c.Goals
}

// Policy is every tunable of the scorer.
type Policy struct {
	Weights    Weights
	Categories CategoryWeights
	// ReasonThreshold is the minimum measured sub-score (0-100) that earns a
	// semantic, behavioral or compatibility reason.
	ReasonThreshold int
	// NeutralScore substitutes a sub-score whose inputs are missing.
	NeutralScore int
	// Complements lists goal pairs that complete each other. Nil means DefaultComplements.
	Complements [][2]string
}

const weightTolerance = 1e-6

func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			RuleBased:     0.35,
			Semantic:      0.25,
			Behavioral:    0.20,
			Compatibility: 0.20,
		},
		Categories: CategoryWeights{
			Industries: 0.40,
			Interests:  0.30,
			Goals:      0.30,
		},
		ReasonThreshold: 10,
		NeutralScore:    50,
	}
}

// Validate checks that both weight groups are non-negative and sum to 1.0.
func (p Policy) Validate() error {
	for name, w := range map[string]float64{
		"rule_based":    p.Weights.RuleBased,
		"semantic":      p.Weights.Semantic,
		"behavioral":    p.Weights.Behavioral,
		"compatibility": p.Weights.Compatibility,
		"industries":    p.Categories.Industries,
		"interests":     p.Categories.Interests,
		"goals":         p.Categories.Goals,
	} {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("weight %s must be >= 0: %w", name, svcErr.ErrInvalidInput)
		}
	}
	if s := p.Weights.sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("sub-score weights sum to %.4f, want 1.0: %w", s, svcErr.ErrInvalidInput)
	}
	if s := p.Categories.sum(); math.Abs(s-1) > weightTolerance {
		return fmt.Errorf("category weights sum to %.4f, want 1.0: %w", s, svcErr.ErrInvalidInput)
	}
	if p.NeutralScore < 0 || p.NeutralScore > 100 {
		return fmt.Errorf("neutral score %d out of [0,100]: %w", p.NeutralScore, svcErr.ErrInvalidInput)
	}
	if p.ReasonThreshold < 0 || p.ReasonThreshold > p.NeutralScore {
		return fmt.Errorf("reason threshold %d out of [0,%d]: %w", p.ReasonThreshold, p.NeutralScore, svcErr.ErrInvalidInput)
	}
	return nil
}
