package notify

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/onikinet/oniki-match/internal/auth"
	"github.com/onikinet/oniki-match/internal/httpx"
)

// Handler upgrades authenticated requests to a notification websocket.
type Handler struct {
	hub      *Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from allowedOrigins; an empty list allows any
// origin.
func NewHandler(hub *Hub, log *slog.Logger, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(allowed) == 0 || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, err := auth.Require(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}

	client := NewClient(h.hub, conn, sess.UserID)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}
