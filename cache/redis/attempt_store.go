package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopd-io/shopd/cache"
)

// AttemptStore implements the cache.AttemptStore interface using Redis.
// Counters live under a key prefix and expire via Redis TTLs, so multiple
// server instances share one throttle view.
type AttemptStore struct {
	client *redis.Client
	prefix string
}

// NewAttemptStore creates a new [AttemptStore] instance.
func NewAttemptStore(client *redis.Client, prefix string) *AttemptStore {
	return &AttemptStore{client: client, prefix: prefix}
}

func (r *AttemptStore) redisKey(email string) string {
	return fmt.Sprintf("%s:login_attempts:%s", r.prefix, email)
}

// Incr increments the failed-attempt counter, setting the window TTL only
// when the key is created so the window stays anchored at the first failure.
func (r *AttemptStore) Incr(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := r.redisKey(email)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment attempt counter: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set attempt counter expiry: %w", err)
		}
	}
	return count, nil
}

// Count returns the current counter value, zero when absent.
func (r *AttemptStore) Count(ctx context.Context, email string) (int64, error) {
	count, err := r.client.Get(ctx, r.redisKey(email)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read attempt counter: %w", err)
	}
	return count, nil
}

// Reset deletes the counter.
func (r *AttemptStore) Reset(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.redisKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to reset attempt counter: %w", err)
	}
	return nil
}

var _ cache.AttemptStore = (*AttemptStore)(nil)
