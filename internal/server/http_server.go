package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onikinet/oniki-match/internal/app"
	"github.com/onikinet/oniki-match/internal/httpx"
	"github.com/onikinet/oniki-match/internal/logger"
)

// NewRouter builds the HTTP API. Health and metrics are public; service
// routes and the notification socket require a bearer token.
func NewRouter(appCtx *app.AppContext, notifications http.Handler, routes ...RouteRegistrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(appCtx.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCtx.Config.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthz(appCtx))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(appCtx.Tokens.Middleware)
		for _, rr := range routes {
			rr.Routes(r)
		}
		if notifications != nil {
			r.Handle("/ws/notifications", notifications)
		}
	})

	return r
}

// StartHTTPServer serves handler on the configured address until ctx is
// cancelled, then shuts down gracefully.
func StartHTTPServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server on %s: %w", addr, err)
	}
	return nil
}

func healthz(appCtx *app.AppContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"db": "ok", "redis": "ok"}
		code := http.StatusOK

		sqlDB, err := appCtx.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			checks["db"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := appCtx.RedisCache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, checks)
	}
}

// requestLogger stores a request-scoped logger in the context and logs one
// line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With("request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			reqLog.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
