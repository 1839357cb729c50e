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
	defaultBlacklistPrefix = "blacklist_token"
	maxJTILength           = 255
	blacklistScanBatch     = 128
)

// BlacklistRepository stores revoked token identifiers in Redis. The per-key TTL is
// the sole cleanup mechanism: an entry only has to outlive its token's validity window.
type BlacklistRepository struct {
	client *red.Client
	prefix string
}

// NewBlacklistRepository wires a Redis client into a blacklist repository.
func NewBlacklistRepository(client *red.Client, keyPrefix string) *BlacklistRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultBlacklistPrefix
	}

	return &BlacklistRepository{client: client, prefix: prefix}
}

// Add records the entry with the supplied TTL and the reason as payload.
func (r *BlacklistRepository) Add(ctx context.Context, entry domain.BlacklistEntry, ttl time.Duration) error {
	key := r.key(entry.JTI)
	if key == "" {
		return errors.New("jti must not be blank")
	}
	if len(entry.JTI) > maxJTILength {
		return fmt.Errorf("jti exceeds %d characters", maxJTILength)
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	if err := r.client.Set(ctx, key, string(entry.Reason), ttl).Err(); err != nil {
		return storeErr("redis set blacklisted jti", err)
	}

	return nil
}

// Contains reports whether the JTI is blacklisted and returns the stored reason when present.
func (r *BlacklistRepository) Contains(ctx context.Context, jti string) (bool, domain.BlacklistReason, error) {
	key := r.key(jti)
	if key == "" {
		return false, "", errors.New("jti must not be blank")
	}

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, "", nil
		}
		return false, "", storeErr("redis get blacklisted jti", err)
	}

	return true, domain.ParseBlacklistReason(value), nil
}

// Cleanup sweeps the keyspace for entries left without an expiry and deletes them.
// Redis TTL already removes individual keys, so this is advisory maintenance only
// and never load-bearing for the blacklist's safety property.
func (r *BlacklistRepository) Cleanup(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		deleted int64
	)
	pattern := fmt.Sprintf("%s:*", r.prefix)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, blacklistScanBatch).Result()
		if err != nil {
			return deleted, storeErr("redis scan blacklist keys", err)
		}

		for _, key := range keys {
			ttl, err := r.client.TTL(ctx, key).Result()
			if err != nil {
				return deleted, storeErr("redis ttl blacklist key", err)
			}
			if ttl != -1 {
				continue
			}
			if err := r.client.Del(ctx, key).Err(); err != nil {
				return deleted, storeErr("redis delete blacklist key", err)
			}
			deleted++
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

func (r *BlacklistRepository) key(jti string) string {
	trimmed := strings.TrimSpace(jti)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed)
}

var _ port.TokenBlacklist = (*BlacklistRepository)(nil)
