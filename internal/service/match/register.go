package match

import (
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"

	"github.com/onikinet/oniki-match/internal/app"
)

// Registrar ties the Match service into the gRPC and HTTP servers.
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the Match service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, &grpcServer{svc: r.svc})
}

// Routes mounts the HTTP endpoints.
func (r *Registrar) Routes(router chi.Router) {
	NewHandler(r.svc).Routes(router)
}
