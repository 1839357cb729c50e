package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

const defaultTokenCachePrefix = "refresh_token"

// TokenCacheRepository keeps both lookup directions of a refresh session in Redis:
// `{prefix}::user::{userId}` holds the token and `{prefix}::token::{token}` holds the
// user id, so reads hit the cache regardless of which side the caller knows.
type TokenCacheRepository struct {
	client *red.Client
	prefix string
}

// NewTokenCacheRepository wires a Redis client into a token cache repository.
func NewTokenCacheRepository(client *red.Client, keyPrefix string) *TokenCacheRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultTokenCachePrefix
	}

	return &TokenCacheRepository{client: client, prefix: prefix}
}

// SetPair writes the forward and reverse entries sharing a single TTL.
func (r *TokenCacheRepository) SetPair(ctx context.Context, userID, token string, ttl time.Duration) error {
	userKey := r.userKey(userID)
	tokenKey := r.tokenKey(token)
	if userKey == "" || tokenKey == "" {
		return errors.New("user id and token must not be empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, userKey, token, ttl)
	pipe.Set(ctx, tokenKey, userID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("redis set token pair", err)
	}

	return nil
}

// GetTokenByUser returns the cached token for a user when present.
func (r *TokenCacheRepository) GetTokenByUser(ctx context.Context, userID string) (string, bool, error) {
	key := r.userKey(userID)
	if key == "" {
		return "", false, errors.New("user id must not be empty")
	}

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", false, nil
		}
		return "", false, storeErr("redis get token by user", err)
	}

	return value, true, nil
}

// GetUserByToken returns the cached user id for a token when present.
func (r *TokenCacheRepository) GetUserByToken(ctx context.Context, token string) (string, bool, error) {
	key := r.tokenKey(token)
	if key == "" {
		return "", false, errors.New("token must not be empty")
	}

	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", false, nil
		}
		return "", false, storeErr("redis get user by token", err)
	}

	return value, true, nil
}

// DeletePair removes both cache directions. Leaving a half-entry behind would keep
// answering "found" for a revoked session, so both keys go in one round trip.
func (r *TokenCacheRepository) DeletePair(ctx context.Context, userID, token string) error {
	keys := make([]string, 0, 2)
	if key := r.userKey(userID); key != "" {
		keys = append(keys, key)
	}
	if key := r.tokenKey(token); key != "" {
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return errors.New("user id or token is required")
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return storeErr("redis delete token pair", err)
	}

	return nil
}

func (r *TokenCacheRepository) userKey(userID string) string {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s::user::%s", r.prefix, trimmed)
}

func (r *TokenCacheRepository) tokenKey(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s::token::%s", r.prefix, trimmed)
}

var _ port.RefreshTokenCache = (*TokenCacheRepository)(nil)
