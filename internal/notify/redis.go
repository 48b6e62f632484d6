package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/onikinet/oniki-match/internal/cache"
	"github.com/onikinet/oniki-match/internal/metrics"
)

// RedisPublisher publishes events as JSON on a pub/sub channel.
type RedisPublisher struct {
	cache   *cache.RedisCache
	channel string
}

func NewRedisPublisher(rc *cache.RedisCache, channel string) *RedisPublisher {
	return &RedisPublisher{cache: rc, channel: channel}
}

func (p *RedisPublisher) Dispatch(ctx context.Context, events ...Event) error {
	var errs []error
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.cache.Publish(ctx, p.channel, b); err != nil {
			metrics.NotificationsDispatched.WithLabelValues(string(ev.Type), metrics.OutcomeError).Inc()
			errs = append(errs, fmt.Errorf("publish %s to %s: %w", ev.Type, ev.UserID, err))
			continue
		}
		metrics.NotificationsDispatched.WithLabelValues(string(ev.Type), metrics.OutcomeOK).Inc()
	}
	return errors.Join(errs...)
}

// Subscriber forwards events from the pub/sub channel to the local hub.
type Subscriber struct {
	cache   *cache.RedisCache
	channel string
	hub     *Hub
	log     *slog.Logger
}

func NewSubscriber(rc *cache.RedisCache, channel string, hub *Hub, log *slog.Logger) *Subscriber {
	return &Subscriber{cache: rc, channel: channel, hub: hub, log: log}
}

// Run blocks until ctx is done. ready, when non-nil, is closed once the
// subscription is confirmed.
func (s *Subscriber) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := s.cache.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	s.log.Info("notification subscriber started", "channel", s.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.forward(msg)
		}
	}
}

func (s *Subscriber) forward(msg *redis.Message) {
	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		s.log.Warn("dropping malformed notification", "err", err)
		return
	}
	if ev.UserID == "" {
		return
	}
	s.hub.SendTo(ev.UserID, []byte(msg.Payload))
}
