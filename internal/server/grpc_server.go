package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/config"
	_ "github.com/onikinet/oniki-match/internal/rpc" // registers the JSON codec
)

// NewGRPCServer builds a gRPC server with authentication, request logging,
// health checks and reflection, and registers all provided services.
func NewGRPCServer(tokens *auth.TokenService, log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(log),
			tokens.UnaryInterceptor(healthpb.Health_Check_FullMethodName),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	healthpb.RegisterHealthServer(grpcServer, health.NewServer())

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer serves grpcServer on the configured address until ctx is
// cancelled, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("grpc call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
