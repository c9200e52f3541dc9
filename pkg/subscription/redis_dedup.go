package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDedup remembers processed webhook deliveries in Redis so dedup holds
// across processes and restarts. Keys expire after the TTL; older
// redeliveries are still harmless thanks to transition idempotency.
type RedisDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDedup wraps an existing Redis client. A non-positive ttl defaults
// to 48 hours, comfortably past typical provider retry schedules.
func NewRedisDedup(client *redis.Client, ttl time.Duration) *RedisDedup {
	if client == nil {
		panic("subscription: redis client is required")
	}
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisDedup{client: client, ttl: ttl}
}

func (d *RedisDedup) Seen(ctx context.Context, subscriptionID, key string) (bool, error) {
	redisKey := "billing:webhook:" + subscriptionID + ":" + key

	// SET NX records and tests in one round trip.
	set, err := d.client.SetNX(ctx, redisKey, 1, d.ttl).Result()
	if err != nil {
		return false, errors.Join(errors.New("webhook dedup store unavailable"), err)
	}
	return !set, nil
}
