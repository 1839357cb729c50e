package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
)

// ErrSessionNotFound indicates no active refresh session exists for the lookup key.
var ErrSessionNotFound = errors.New("refresh session not found")

// SessionStore is the cache-aside refresh token store. Reads hit the cache tier
// first and fall back to the durable store, re-warming the cache on the way out.
// The durable store stays authoritative: its failures fail the operation, while
// cache failures only degrade to durable-only reads with a warning.
type SessionStore struct {
	durable    port.RefreshTokenStore
	cache      port.RefreshTokenCache
	clock      port.Clock
	logger     *zap.Logger
	defaultTTL time.Duration
}

// NewSessionStore constructs a SessionStore. The cache may be nil, in which case
// every operation runs durable-only.
func NewSessionStore(durable port.RefreshTokenStore, cache port.RefreshTokenCache, clock port.Clock, defaultTTL time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = port.ClockFunc(func() time.Time { return time.Now().UTC() })
	}
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}

	return &SessionStore{
		durable:    durable,
		cache:      cache,
		clock:      clock,
		logger:     logger,
		defaultTTL: defaultTTL,
	}
}

// Save persists the user's refresh token, superseding any prior active session.
// The durable upsert is the commit point; both cache directions are written
// best-effort afterwards and repaired on the next read if the write is lost.
func (s *SessionStore) Save(ctx context.Context, record domain.RefreshTokenRecord) error {
	if strings.TrimSpace(record.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(record.TokenValue) == "" {
		return fmt.Errorf("token value is required")
	}

	// A rotation leaves the previous token's reverse cache entry behind unless it
	// is removed here; a stale half-entry would keep answering for a dead session.
	previous, err := s.durable.FindByUserID(ctx, record.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("lookup previous refresh token: %w", err)
	}

	if err := s.durable.Save(ctx, record); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}

	if s.cache == nil {
		return nil
	}

	if previous != nil && previous.TokenValue != record.TokenValue {
		if err := s.cache.DeletePair(ctx, previous.UserID, previous.TokenValue); err != nil {
			s.logger.Warn("failed to evict superseded token from cache", zap.Error(err))
		}
	}

	if err := s.cache.SetPair(ctx, record.UserID, record.TokenValue, s.cacheTTL(record)); err != nil {
		s.logger.Warn("failed to cache refresh token pair", zap.String("user_id", record.UserID), zap.Error(err))
	}

	return nil
}

// FindTokenByUser returns the user's active refresh token, cache-first.
func (s *SessionStore) FindTokenByUser(ctx context.Context, userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}

	if s.cache != nil {
		token, ok, err := s.cache.GetTokenByUser(ctx, userID)
		if err != nil {
			s.logger.Warn("cache read failed, falling back to durable store", zap.Error(err))
		} else if ok {
			return token, nil
		}
	}

	record, err := s.durable.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("find token by user: %w", err)
	}

	s.warmCache(ctx, *record)
	return record.TokenValue, nil
}

// FindUserByToken returns the owner of the supplied refresh token, cache-first.
func (s *SessionStore) FindUserByToken(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("token is required")
	}

	if s.cache != nil {
		userID, ok, err := s.cache.GetUserByToken(ctx, token)
		if err != nil {
			s.logger.Warn("cache read failed, falling back to durable store", zap.Error(err))
		} else if ok {
			return userID, nil
		}
	}

	record, err := s.durable.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("find user by token: %w", err)
	}

	s.warmCache(ctx, *record)
	return record.UserID, nil
}

// RecordByToken returns the full durable record for a token, bypassing the cache.
// Rotation needs the record's identifier and expiry, which the cache does not hold.
func (s *SessionStore) RecordByToken(ctx context.Context, token string) (*domain.RefreshTokenRecord, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("token is required")
	}

	record, err := s.durable.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find refresh token record: %w", err)
	}

	return record, nil
}

// DeleteByUser revokes the user's refresh session in both tiers. The counterpart
// token is resolved first so the reverse cache entry is removed as well.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}

	token := s.lookupToken(ctx, userID)

	if err := s.durable.DeleteByUserID(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete refresh token by user: %w", err)
	}

	s.evictPair(ctx, userID, token)
	return nil
}

// DeleteByToken revokes the session holding the supplied token in both tiers.
func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}

	userID := s.lookupUser(ctx, token)

	if err := s.durable.DeleteByToken(ctx, token); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete refresh token by token: %w", err)
	}

	s.evictPair(ctx, userID, token)
	return nil
}

func (s *SessionStore) cacheTTL(record domain.RefreshTokenRecord) time.Duration {
	ttl := record.RemainingLifetime(s.clock.Now())
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return ttl
}

// warmCache repopulates both directions after a durable hit. Failures are logged
// and swallowed: the durable store already answered.
func (s *SessionStore) warmCache(ctx context.Context, record domain.RefreshTokenRecord) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetPair(ctx, record.UserID, record.TokenValue, s.cacheTTL(record)); err != nil {
		s.logger.Warn("cache warm-up failed", zap.String("user_id", record.UserID), zap.Error(err))
	}
}

func (s *SessionStore) lookupToken(ctx context.Context, userID string) string {
	if s.cache != nil {
		if token, ok, err := s.cache.GetTokenByUser(ctx, userID); err == nil && ok {
			return token
		}
	}
	if record, err := s.durable.FindByUserID(ctx, userID); err == nil {
		return record.TokenValue
	}
	return ""
}

func (s *SessionStore) lookupUser(ctx context.Context, token string) string {
	if s.cache != nil {
		if userID, ok, err := s.cache.GetUserByToken(ctx, token); err == nil && ok {
			return userID
		}
	}
	if record, err := s.durable.FindByToken(ctx, token); err == nil {
		return record.UserID
	}
	return ""
}

func (s *SessionStore) evictPair(ctx context.Context, userID, token string) {
	if s.cache == nil {
		return
	}
	if userID == "" && token == "" {
		return
	}
	if err := s.cache.DeletePair(ctx, userID, token); err != nil {
		s.logger.Warn("failed to evict token pair from cache", zap.Error(err))
	}
}
