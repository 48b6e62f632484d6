package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_SEED_ON_START", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/oniki")
	assert.Equal(t, 0.35, cfg.Scoring.RuleWeight)
	assert.Equal(t, 10, cfg.Recommendations.DefaultLimit)
	assert.Equal(t, 5*time.Minute, cfg.Recommendations.CacheTTL)
	assert.Equal(t, "development", cfg.App.ENV)
	assert.False(t, cfg.App.SeedOnStart, "development alone must not reseed")
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("SCORING_WEIGHT_RULE", "0.5")
	t.Setenv("SCORING_WEIGHT_GOALS", "0.25")
	t.Setenv("RECOMMENDATIONS_CACHE_TTL", "30s")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "http://a, http://b ,")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("APP_SEED_ON_START", "true")

	cfg := New()

	assert.Equal(t, "/tmp/x.db", cfg.DB.DSN)
	assert.Equal(t, 0.5, cfg.Scoring.RuleWeight)
	assert.Equal(t, 0.25, cfg.Scoring.GoalWeight)
	assert.Equal(t, 30*time.Second, cfg.Recommendations.CacheTTL)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.True(t, cfg.App.SeedOnStart)
}

func TestLoadScoringFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	body := `
weights:
  rule_based: 0.4
  semantic: 0.2
  categories:
    industries: 0.5
    goals: 0.2
reason_threshold: 15
complements:
  - ["need designer", "offer design"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg := &Config{Scoring: DefaultScoring()}
	cfg.Scoring.PolicyFile = path

	require.NoError(t, LoadScoringFile(cfg))
	assert.Equal(t, 0.4, cfg.Scoring.RuleWeight)
	assert.Equal(t, 0.2, cfg.Scoring.SemanticWeight)
	assert.Equal(t, 0.20, cfg.Scoring.BehavioralWeight)
	assert.Equal(t, 0.5, cfg.Scoring.IndustryWeight)
	assert.Equal(t, 0.30, cfg.Scoring.InterestWeight)
	assert.Equal(t, 0.2, cfg.Scoring.GoalWeight)
	assert.Equal(t, 15, cfg.Scoring.ReasonThreshold)
	assert.Equal(t, [][2]string{{"need designer", "offer design"}}, cfg.Scoring.Complements)
}

func TestLoadScoringFile_BadPair(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("complements:\n  - [\"only one\"]\n"), 0o600))

	cfg := &Config{Scoring: DefaultScoring()}
	cfg.Scoring.PolicyFile = path

	assert.Error(t, LoadScoringFile(cfg))
}

func TestLoadScoringFile_NoFile(t *testing.T) {
	cfg := &Config{Scoring: DefaultScoring()}
	assert.NoError(t, LoadScoringFile(cfg))
}
