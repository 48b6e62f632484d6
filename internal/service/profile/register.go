package profile

import (
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"

	"github.com/onikinet/oniki-match/internal/app"
)

// Registrar ties the Profile service into the gRPC and HTTP servers.
type Registrar struct {
	svc *Service
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, &grpcServer{svc: r.svc})
}

func (r *Registrar) Routes(router chi.Router) {
	NewHandler(r.svc).Routes(router)
}
