package auth

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
	"github.com/onikinet/oniki-match/internal/httpx"
)

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// Middleware authenticates HTTP requests with a bearer token. Browsers
// opening a websocket cannot set headers, so the access_token query
// parameter is accepted as well.
func (s *TokenService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearer(r.Header.Get("Authorization"))
		if token == "" {
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			httpx.WriteError(w, r, svcErr.ErrUnauthenticated)
			return
		}
		sess, err := s.Validate(token)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// UnaryInterceptor authenticates gRPC calls from the "authorization"
// metadata. Methods listed in public skip authentication.
func (s *TokenService) UnaryInterceptor(public ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]struct{}, len(public))
	for _, m := range public {
		skip[m] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := skip[info.FullMethod]; ok {
			return handler(ctx, req)
		}
		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("authorization"); len(v) > 0 {
				token = bearer(v[0])
			}
		}
		if token == "" {
			return nil, svcErr.Map(svcErr.ErrUnauthenticated)
		}
		sess, err := s.Validate(token)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		return handler(WithSession(ctx, sess), req)
	}
}
