package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onikinet/oniki-match/internal/config"
)

// PendingCountTTL bounds how long a cached pending counter lives without access.
const PendingCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// Publish sends payload on a pub/sub channel.
func (c *RedisCache) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.Client.Publish(ctx, channel, payload).Err()
}

// Subscribe opens a pub/sub subscription; the caller closes it.
func (c *RedisCache) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.Client.Subscribe(ctx, channels...)
}

// --- pending-match counters ---

// KeyForPendingCount generates Redis key for a user's pending match count
func (c *RedisCache) KeyForPendingCount(userID string) string {
	return fmt.Sprintf("matches:pending:%s", userID)
}

func (c *RedisCache) SetPendingCount(ctx context.Context, userID string, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForPendingCount(userID), count, PendingCountTTL).Err()
}

// GetPendingCount returns the cached counter and whether it was present.
func (c *RedisCache) GetPendingCount(ctx context.Context, userID string) (int64, bool, error) {
	key := c.KeyForPendingCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, PendingCountTTL).Err()
	return n, true, nil
}

// adjustIfPresent changes a counter only when it is already cached, so a
// cold key is never seeded with a partial value. Returns -1 when absent.
var adjustIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	local v = redis.call("INCRBY", KEYS[1], ARGV[1])
	if v < 0 then
		redis.call("SET", KEYS[1], 0)
		v = 0
	end
	redis.call("EXPIRE", KEYS[1], ARGV[2])
	return v
end
return -1
`)

// AdjustPendingCount adds delta to each user's cached counter that exists.
func (c *RedisCache) AdjustPendingCount(ctx context.Context, delta int64, userIDs ...string) error {
	var errs []error
	for _, id := range userIDs {
		err := adjustIfPresent.Run(ctx, c.Client,
			[]string{c.KeyForPendingCount(id)}, delta, int(PendingCountTTL.Seconds())).Err()
		if err != nil {
			errs = append(errs, fmt.Errorf("adjust pending %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// --- recommendation lists ---

// KeyForRecommendations generates Redis key for a user's recommendations at an event.
func (c *RedisCache) KeyForRecommendations(eventID, userID string) string {
	return fmt.Sprintf("recs:%s:%s", eventID, userID)
}

func (c *RedisCache) keyForEventIndex(eventID string) string {
	return fmt.Sprintf("recs:idx:%s", eventID)
}

// GetRecommendations returns the cached payload and whether it was present.
func (c *RedisCache) GetRecommendations(ctx context.Context, eventID, userID string) ([]byte, bool, error) {
	b, err := c.Client.Get(ctx, c.KeyForRecommendations(eventID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// SetRecommendations caches payload and records the key in the event's
// index so the whole event can be invalidated at once.
func (c *RedisCache) SetRecommendations(ctx context.Context, eventID, userID string, payload []byte, ttl time.Duration) error {
	key := c.KeyForRecommendations(eventID, userID)
	idx := c.keyForEventIndex(eventID)
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, payload, ttl)
		p.SAdd(ctx, idx, key)
		p.Expire(ctx, idx, ttl)
		return nil
	})
	return err
}

// InvalidateRecommendations drops the cached lists of the given users at eventID.
func (c *RedisCache) InvalidateRecommendations(ctx context.Context, eventID string, userIDs ...string) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForRecommendations(eventID, id))
	}
	if len(keys) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, keys...)
		members := make([]interface{}, len(keys))
		for i, k := range keys {
			members[i] = k
		}
		p.SRem(ctx, c.keyForEventIndex(eventID), members...)
		return nil
	})
	return err
}

// InvalidateEvent drops every cached list at eventID.
func (c *RedisCache) InvalidateEvent(ctx context.Context, eventID string) error {
	idx := c.keyForEventIndex(eventID)
	keys, err := c.Client.SMembers(ctx, idx).Result()
	if err != nil {
		return err
	}
	return c.Del(ctx, append(keys, idx)...)
}
