package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

const (
	defaultRateLimitPrefix = "rate_limit"
	rateLimitScanBatch     = 128
)

// RateLimitRepository maintains fixed-window counters in Redis keyed
// `{prefix}:{type}:{identifier}:{endpoint}`. The window TTL is attached with
// EXPIRE NX so only the first increment of a window sets it; a burst late in the
// window never extends it.
type RateLimitRepository struct {
	client *red.Client
	prefix string
}

// NewRateLimitRepository wires a Redis client into a rate limit repository.
func NewRateLimitRepository(client *red.Client, keyPrefix string) *RateLimitRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRateLimitPrefix
	}

	return &RateLimitRepository{client: client, prefix: prefix}
}

// IncrementAndGet atomically increments the window counter by one and returns the new count.
func (r *RateLimitRepository) IncrementAndGet(ctx context.Context, scope domain.RateLimitScope, window time.Duration) (int64, error) {
	return r.IncrementByAndGet(ctx, scope, 1, window)
}

// IncrementByAndGet atomically adds delta to the window counter for pre-aggregated batches.
func (r *RateLimitRepository) IncrementByAndGet(ctx context.Context, scope domain.RateLimitScope, delta int64, window time.Duration) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	if delta < 1 {
		return 0, errors.New("delta must be at least 1")
	}
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	key := r.key(scope)

	count, err := r.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, storeErr("redis incrby rate limit", err)
	}

	// NX keeps the fixed window honest: the TTL lands on the first increment and is
	// never refreshed, even if the expire was lost between increment and now.
	if err := r.client.ExpireNX(ctx, key, window).Err(); err != nil {
		return count, storeErr("redis expire rate limit", err)
	}

	return count, nil
}

// CurrentCount returns the counter value for the active window, zero when absent.
func (r *RateLimitRepository) CurrentCount(ctx context.Context, scope domain.RateLimitScope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	count, err := r.client.Get(ctx, r.key(scope)).Int64()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return 0, nil
		}
		return 0, storeErr("redis get rate limit", err)
	}

	return count, nil
}

// WindowTTL reports the remaining lifetime of the active window. Zero means no
// window is open for the scope (or the key has no expiry and the next increment
// will attach one).
func (r *RateLimitRepository) WindowTTL(ctx context.Context, scope domain.RateLimitScope) (time.Duration, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	ttl, err := r.client.PTTL(ctx, r.key(scope)).Result()
	if err != nil {
		return 0, storeErr("redis pttl rate limit", err)
	}
	if ttl < 0 {
		return 0, nil
	}

	return ttl, nil
}

// Reset removes a single counter, ending its window immediately.
func (r *RateLimitRepository) Reset(ctx context.Context, scope domain.RateLimitScope) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(scope)).Err(); err != nil {
		return storeErr("redis delete rate limit", err)
	}

	return nil
}

// ResetAll removes every counter tracked for the identifier under the limit type.
func (r *RateLimitRepository) ResetAll(ctx context.Context, identifier string, limitType domain.RateLimitType) (int64, error) {
	if strings.TrimSpace(identifier) == "" {
		return 0, errors.New("identifier is required")
	}
	if limitType == "" {
		return 0, errors.New("limit type is required")
	}

	pattern := fmt.Sprintf("%s:%s:%s:*", r.prefix, limitType, strings.TrimSpace(identifier))
	return r.deleteByPattern(ctx, pattern)
}

// ResetByEndpoint removes every counter tracked for the endpoint under the limit type.
func (r *RateLimitRepository) ResetByEndpoint(ctx context.Context, endpoint string, limitType domain.RateLimitType) (int64, error) {
	if strings.TrimSpace(endpoint) == "" {
		return 0, errors.New("endpoint is required")
	}
	if limitType == "" {
		return 0, errors.New("limit type is required")
	}

	pattern := fmt.Sprintf("%s:%s:*:%s", r.prefix, limitType, strings.TrimSpace(endpoint))
	return r.deleteByPattern(ctx, pattern)
}

func (r *RateLimitRepository) deleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, rateLimitScanBatch).Result()
		if err != nil {
			return deleted, storeErr("redis scan rate limit keys", err)
		}

		if len(keys) > 0 {
			removed, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, storeErr("redis delete rate limit keys", err)
			}
			deleted += removed
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

func (r *RateLimitRepository) key(scope domain.RateLimitScope) string {
	return fmt.Sprintf("%s:%s:%s:%s", r.prefix, scope.Type, strings.TrimSpace(scope.Identifier), strings.TrimSpace(scope.Endpoint))
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
