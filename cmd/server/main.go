package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/onikinet/oniki-match/internal/app"
	"github.com/onikinet/oniki-match/internal/cache"
	"github.com/onikinet/oniki-match/internal/config"
	"github.com/onikinet/oniki-match/internal/db"
	"github.com/onikinet/oniki-match/internal/logger"
	"github.com/onikinet/oniki-match/internal/notify"
	"github.com/onikinet/oniki-match/internal/server"
	"github.com/onikinet/oniki-match/internal/service/match"
	"github.com/onikinet/oniki-match/internal/service/profile"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	if err := config.LoadScoringFile(cfg); err != nil {
		log.Error("failed to load scoring policy", "err", err)
		os.Exit(1)
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}

	appCtx, err := app.New(cfg, database, redisCache, log)
	if err != nil {
		log.Error("invalid scoring policy", "err", err)
		os.Exit(1)
	}

	// Opt-in only: reseeding replaces every user, so tokens printed by
	// cmd/seed stop resolving.
	if cfg.App.SeedOnStart {
		log.Warn("reseeding database", "env", cfg.App.ENV)
		if err := db.SeedTestData(database, 50); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notifications: services publish on Redis, every instance forwards
	// to its own websocket clients.
	hub := notify.NewHub(log)
	appCtx.WithNotifier(notify.NewRedisPublisher(redisCache, cfg.Notify.Channel))
	subscriber := notify.NewSubscriber(redisCache, cfg.Notify.Channel, hub, log)

	matchReg := match.NewRegistrar(appCtx)
	profileReg := profile.NewRegistrar(appCtx)

	grpcServer := server.NewGRPCServer(appCtx.Tokens, log, matchReg, profileReg)
	router := server.NewRouter(appCtx,
		notify.NewHandler(hub, log, cfg.HTTP.AllowedOrigins),
		matchReg, profileReg,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return subscriber.Run(ctx, nil)
	})
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port))
		return server.StartGRPCServer(ctx, cfg, grpcServer)
	})
	g.Go(func() error {
		addr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		log.Info("starting HTTP server", "addr", addr)
		return server.StartHTTPServer(ctx, addr, router)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
