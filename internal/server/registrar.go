package server

import (
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// RouteRegistrar is implemented by services that also expose HTTP routes.
type RouteRegistrar interface {
	Routes(r chi.Router)
}
