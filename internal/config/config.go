package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV  string
		Name string
		// SeedOnStart wipes and reseeds the database at server startup.
		SeedOnStart bool
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		LogSQL   bool
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	HTTP struct {
		Host           string
		Port           string
		AllowedOrigins []string
	}

	Auth struct {
		JWTSecret string
		Issuer    string
		TokenTTL  time.Duration
	}

	Scoring Scoring

	Recommendations struct {
		DefaultLimit int
		MaxLimit     int
		CacheTTL     time.Duration
	}

	Notify struct {
		Channel string
	}
}

// New builds the configuration from the process environment.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "development")
	cfg.App.Name = getEnvDefault("APP_NAME", "oniki-match")
	cfg.App.SeedOnStart = isTruthy(os.Getenv("APP_SEED_ON_START"))

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "match_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.LogSQL = isTruthy(os.Getenv("DB_LOG_SQL"))
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	}
	if cfg.DB.DSN == "" {
		switch cfg.DB.Driver {
		case "sqlite":
			cfg.DB.DSN = getEnvDefault("SQLITE_PATH", "oniki.db")
		default:
			cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
			cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
			cfg.DB.User = getEnvDefault("DB_USER", "root")
			cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
			cfg.DB.Name = getEnvDefault("DB_NAME", "oniki")

			cfg.DB.DSN = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
				cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
			)
		}
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")
	cfg.HTTP.AllowedOrigins = splitList(getEnvDefault("HTTP_ALLOWED_ORIGINS", "http://localhost:3000"))

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "dev-secret-change-me")
	cfg.Auth.Issuer = getEnvDefault("JWT_ISSUER", "oniki.net")
	cfg.Auth.TokenTTL = getEnvDuration("JWT_TTL", 24*time.Hour)

	// Scoring policy
	cfg.Scoring = DefaultScoring()
	cfg.Scoring.RuleWeight = getEnvFloat("SCORING_WEIGHT_RULE", cfg.Scoring.RuleWeight)
	cfg.Scoring.SemanticWeight = getEnvFloat("SCORING_WEIGHT_SEMANTIC", cfg.Scoring.SemanticWeight)
	cfg.Scoring.BehavioralWeight = getEnvFloat("SCORING_WEIGHT_BEHAVIORAL", cfg.Scoring.BehavioralWeight)
	cfg.Scoring.CompatibilityWeight = getEnvFloat("SCORING_WEIGHT_COMPATIBILITY", cfg.Scoring.CompatibilityWeight)
	cfg.Scoring.IndustryWeight = getEnvFloat("SCORING_WEIGHT_INDUSTRIES", cfg.Scoring.IndustryWeight)
	cfg.Scoring.InterestWeight = getEnvFloat("SCORING_WEIGHT_INTERESTS", cfg.Scoring.InterestWeight)
	cfg.Scoring.GoalWeight = getEnvFloat("SCORING_WEIGHT_GOALS", cfg.Scoring.GoalWeight)
	cfg.Scoring.ReasonThreshold = getEnvInt("SCORING_REASON_THRESHOLD", cfg.Scoring.ReasonThreshold)
	cfg.Scoring.PolicyFile = os.Getenv("SCORING_POLICY_FILE")

	// Recommendations
	cfg.Recommendations.DefaultLimit = getEnvInt("RECOMMENDATIONS_DEFAULT_LIMIT", 10)
	cfg.Recommendations.MaxLimit = getEnvInt("RECOMMENDATIONS_MAX_LIMIT", 50)
	cfg.Recommendations.CacheTTL = getEnvDuration("RECOMMENDATIONS_CACHE_TTL", 5*time.Minute)

	// Notifications
	cfg.Notify.Channel = getEnvDefault("NOTIFY_CHANNEL", "oniki:notifications")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return f
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnvDefault(k, "")); err == nil {
		return d
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
