package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/cache"
	"github.com/onikinet/oniki-match/internal/config"
	"github.com/onikinet/oniki-match/internal/matching"
	"github.com/onikinet/oniki-match/internal/notify"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Scorer     *matching.Scorer
	Notifier   notify.Dispatcher
	Tokens     *auth.TokenService
}

// New creates a new AppContext. The scorer is built from cfg.Scoring and
// the notifier defaults to notify.Nop.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) (*AppContext, error) {
	scorer, err := matching.NewScorer(PolicyFromConfig(cfg.Scoring))
	if err != nil {
		return nil, err
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Scorer:     scorer,
		Notifier:   notify.Nop{},
		Tokens:     auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
	}, nil
}

// WithNotifier replaces the dispatcher.
func (a *AppContext) WithNotifier(d notify.Dispatcher) *AppContext {
	a.Notifier = d
	return a
}

// PolicyFromConfig turns the configured scoring knobs into a scorer policy.
func PolicyFromConfig(s config.Scoring) matching.Policy {
	p := matching.DefaultPolicy()
	p.Weights = matching.Weights{
		RuleBased:     s.RuleWeight,
		Semantic:      s.SemanticWeight,
		Behavioral:    s.BehavioralWeight,
		Compatibility: s.CompatibilityWeight,
	}
	p.Categories = matching.CategoryWeights{
		Industries: s.IndustryWeight,
		Interests:  s.InterestWeight,
		Goals:      s.GoalWeight,
	}
	p.ReasonThreshold = s.ReasonThreshold
	p.NeutralScore = s.NeutralScore
	if len(s.Complements) > 0 {
		p.Complements = append([][2]string(nil), s.Complements...)
	}
	return p
}
