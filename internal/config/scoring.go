package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Scoring holds the tunable policy of the match scorer.
// Complements is optional; when empty the scorer's built-in table is used.
type Scoring struct {
	RuleWeight          float64
	SemanticWeight      float64
	BehavioralWeight    float64
	CompatibilityWeight float64

	// Category weights of the rule-based sub-score; they must sum to 1.
	IndustryWeight float64
	InterestWeight float64
	GoalWeight     float64

	ReasonThreshold int
	NeutralScore    int
	Complements     [][2]string
	PolicyFile      string
}

func DefaultScoring() Scoring {
	return Scoring{
		RuleWeight:          0.35,
		SemanticWeight:      0.25,
		BehavioralWeight:    0.20,
		CompatibilityWeight: 0.20,
		IndustryWeight:      0.40,
		InterestWeight:      0.30,
		GoalWeight:          0.30,
		ReasonThreshold:     10,
		NeutralScore:        50,
	}
}

type scoringFile struct {
	Weights struct {
		RuleBased     *float64 `mapstructure:"rule_based"`
		Semantic      *float64 `mapstructure:"semantic"`
		Behavioral    *float64 `mapstructure:"behavioral"`
		Compatibility *float64 `mapstructure:"compatibility"`
		Categories    struct {
			Industries *float64 `mapstructure:"industries"`
			Interests  *float64 `mapstructure:"interests"`
			Goals      *float64 `mapstructure:"goals"`
		} `mapstructure:"categories"`
	} `mapstructure:"weights"`
	ReasonThreshold *int       `mapstructure:"reason_threshold"`
	NeutralScore    *int       `mapstructure:"neutral_score"`
	Complements     [][]string `mapstructure:"complements"`
}

// LoadScoringFile overlays the policy file referenced by Scoring.PolicyFile
// (YAML, JSON or TOML, by extension) onto cfg. Keys missing from the file keep
// their current values. No file configured is not an error.
func LoadScoringFile(cfg *Config) error {
	path := cfg.Scoring.PolicyFile
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read scoring policy %s: %w", path, err)
	}

	var f scoringFile
	if err := v.Unmarshal(&f); err != nil {
		return fmt.Errorf("decode scoring policy %s: %w", path, err)
	}

	s := &cfg.Scoring
	if f.Weights.RuleBased != nil {
		s.RuleWeight = *f.Weights.RuleBased
	}
	if f.Weights.Semantic != nil {
		s.SemanticWeight = *f.Weights.Semantic
	}
	if f.Weights.Behavioral != nil {
		s.BehavioralWeight = *f.Weights.Behavioral
	}
	if f.Weights.Compatibility != nil {
		s.CompatibilityWeight = *f.Weights.Compatibility
	}
	if c := f.Weights.Categories; c.Industries != nil {
		s.IndustryWeight = *c.Industries
	}
	if c := f.Weights.Categories; c.Interests != nil {
		s.InterestWeight = *c.Interests
	}
	if c := f.Weights.Categories; c.Goals != nil {
		s.GoalWeight = *c.Goals
	}
	if f.ReasonThreshold != nil {
		s.ReasonThreshold = *f.ReasonThreshold
	}
	if f.NeutralScore != nil {
		s.NeutralScore = *f.NeutralScore
	}
	if len(f.Complements) > 0 {
		s.Complements = s.Complements[:0]
		for i, pair := range f.Complements {
			if len(pair) != 2 {
				return fmt.Errorf("scoring policy %s: complements[%d] must have exactly two goals", path, i)
			}
			s.Complements = append(s.Complements, [2]string{pair[0], pair[1]})
		}
	}
	return nil
}
