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
)

const maxJTILength = 255

// ErrBlankJTI indicates the caller supplied an empty or oversized token identifier.
var ErrBlankJTI = errors.New("jti must be 1-255 non-blank characters")

// BlacklistService fronts the revocation registry. Entries live exactly as long as
// the revoked token could still be presented; the cache tier's native expiry is the
// only cleanup mechanism the safety property relies on.
type BlacklistService struct {
	store  port.TokenBlacklist
	events port.RevocationEventPublisher
	clock  port.Clock
	logger *zap.Logger
}

// NewBlacklistService constructs a BlacklistService. The event publisher is optional.
func NewBlacklistService(store port.TokenBlacklist, events port.RevocationEventPublisher, clock port.Clock, logger *zap.Logger) *BlacklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = port.ClockFunc(func() time.Time { return time.Now().UTC() })
	}

	return &BlacklistService{
		store:  store,
		events: events,
		clock:  clock,
		logger: logger,
	}
}

// Blacklist records the token identifier as revoked until its own expiry. A token
// that already expired is still recorded for at least one second so a concurrent
// verification never finds it silently missing.
func (s *BlacklistService) Blacklist(ctx context.Context, jti string, expiresAt time.Time, reason domain.BlacklistReason) error {
	trimmed := strings.TrimSpace(jti)
	if trimmed == "" || len(jti) > maxJTILength {
		return ErrBlankJTI
	}

	now := s.clock.Now()
	entry := domain.BlacklistEntry{
		JTI:           trimmed,
		Reason:        reason,
		BlacklistedAt: now,
		ExpiresAt:     expiresAt,
	}

	if err := s.store.Add(ctx, entry, entry.TTL(now)); err != nil {
		return fmt.Errorf("blacklist jti: %w", err)
	}

	s.publishRevocation(ctx, entry)
	return nil
}

// IsBlacklisted reports whether the identifier was revoked. Infrastructure errors
// are propagated untouched: the caller's own fallback policy decides between
// allow and deny, never this component.
func (s *BlacklistService) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, ErrBlankJTI
	}

	blacklisted, _, err := s.store.Contains(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return blacklisted, nil
}

// RevocationReason returns the stored reason alongside membership, for audit surfaces.
func (s *BlacklistService) RevocationReason(ctx context.Context, jti string) (bool, domain.BlacklistReason, error) {
	if strings.TrimSpace(jti) == "" {
		return false, "", ErrBlankJTI
	}

	blacklisted, reason, err := s.store.Contains(ctx, jti)
	if err != nil {
		return false, "", fmt.Errorf("check blacklist: %w", err)
	}

	return blacklisted, reason, nil
}

// Cleanup runs the advisory maintenance sweep and returns how many stray entries
// were removed. Correctness never depends on it.
func (s *BlacklistService) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := s.store.Cleanup(ctx)
	if err != nil {
		return deleted, fmt.Errorf("cleanup blacklist: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("blacklist cleanup removed stray entries", zap.Int64("deleted", deleted))
	}

	return deleted, nil
}

func (s *BlacklistService) publishRevocation(ctx context.Context, entry domain.BlacklistEntry) {
	if s.events == nil {
		return
	}

	event := domain.TokenRevokedEvent{
		JTI:       entry.JTI,
		Reason:    entry.Reason,
		RevokedAt: entry.BlacklistedAt,
		ExpiresAt: entry.ExpiresAt,
	}
	if err := s.events.PublishTokenRevoked(ctx, event); err != nil {
		s.logger.Warn("failed to publish token revocation event", zap.String("jti", entry.JTI), zap.Error(err))
	}
}
