package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/config"
	"github.com/onikinet/oniki-match/internal/db"
	"github.com/onikinet/oniki-match/internal/logger"
)

func main() {
	users := flag.Int("users", 50, "number of demo users to create")
	tokens := flag.Int("tokens", 3, "print bearer tokens for the first N users")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, *users); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	var demo []db.User
	if err := database.Order("email ASC").Limit(*tokens).Find(&demo).Error; err != nil {
		logger.Error("failed to load demo users", "err", err)
		os.Exit(1)
	}
	ts := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	for _, u := range demo {
		tok, err := ts.Issue(u.ID, u.Email, u.Role)
		if err != nil {
			logger.Error("failed to issue token", "user", u.ID, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\t%s\n", u.Email, u.ID, tok)
	}

	logger.Info("seeding completed", "users", *users)
}
