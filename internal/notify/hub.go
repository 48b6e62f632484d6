package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/onikinet/oniki-match/internal/metrics"
)

type delivery struct {
	userID  string
	message []byte
}

// Hub tracks websocket clients per user and routes messages to them.
// All map mutations happen on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	deliveries chan delivery
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *slog.Logger

	// done is closed when Run exits. lifecycle guards stopped so that a
	// registration either reaches Run or is closed by the caller.
	done      chan struct{}
	lifecycle sync.RWMutex
	stopped   bool
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		deliveries: make(chan delivery, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		log:        log,
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is done, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			set := h.clients[client.userID]
			if set == nil {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			h.mutex.Unlock()
			metrics.WebsocketClients.Inc()
			h.log.Debug("ws connected", "user", client.userID)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.remove(client)

		case d := <-h.deliveries:
			h.mutex.RLock()
			snapshot := make([]*Client, 0, len(h.clients[d.userID]))
			for c := range h.clients[d.userID] {
				snapshot = append(snapshot, c)
			}
			h.mutex.RUnlock()

			for _, client := range snapshot {
				select {
				case client.send <- d.message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()
	h.stopped = true

	h.mutex.Lock()
	for uid, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, uid)
	}
	h.mutex.Unlock()

	// registrations queued but never picked up
	for {
		select {
		case c := <-h.register:
			if c != nil {
				close(c.send)
			}
		default:
			metrics.WebsocketClients.Set(0)
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	set := h.clients[client.userID]
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
	metrics.WebsocketClients.Dec()
	h.log.Debug("ws disconnected", "user", client.userID)
}

// Register hands client to Run. Once Run has exited the client's send
// channel is closed instead, so its write pump stops.
func (h *Hub) Register(client *Client) {
	if h == nil || client == nil {
		return
	}
	h.lifecycle.RLock()
	defer h.lifecycle.RUnlock()
	if h.stopped {
		close(client.send)
		return
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister never blocks after Run has exited; shutdown already closed
// every client.
func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendTo queues message for every connection of userID. It never blocks;
// when the queue is full the message is dropped.
func (h *Hub) SendTo(userID string, message []byte) {
	if h == nil {
		return
	}
	select {
	case h.deliveries <- delivery{userID: userID, message: message}:
	default:
		h.log.Warn("ws delivery dropped", "user", userID, "reason", "buffer_full")
	}
}

// Dispatch delivers events straight to local connections. Used when no
// Redis fan-out is configured.
func (h *Hub) Dispatch(_ context.Context, events ...Event) error {
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		h.SendTo(ev.UserID, b)
		metrics.NotificationsDispatched.WithLabelValues(string(ev.Type), metrics.OutcomeOK).Inc()
	}
	return nil
}

// ClientCount returns the number of open connections for userID, or all
// connections when userID is empty.
func (h *Hub) ClientCount(userID string) int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if userID != "" {
		return len(h.clients[userID])
	}
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}
