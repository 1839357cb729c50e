package port

import (
	"context"
	"time"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
)

// RefreshTokenStore is the durable, authoritative record of one active refresh
// token per user. Save performs update-in-place keyed on user id, so a new token
// always supersedes the previous one.
type RefreshTokenStore interface {
	Save(ctx context.Context, record domain.RefreshTokenRecord) error
	FindByUserID(ctx context.Context, userID string) (*domain.RefreshTokenRecord, error)
	FindByToken(ctx context.Context, token string) (*domain.RefreshTokenRecord, error)
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteByToken(ctx context.Context, token string) error
}

// RefreshTokenCache is the fast tier in front of the durable store. Both lookup
// directions are cached: user→token and token→user. A miss is (value "", ok false, err nil);
// errors indicate the cache tier itself misbehaved.
type RefreshTokenCache interface {
	SetPair(ctx context.Context, userID, token string, ttl time.Duration) error
	GetTokenByUser(ctx context.Context, userID string) (string, bool, error)
	GetUserByToken(ctx context.Context, token string) (string, bool, error)
	DeletePair(ctx context.Context, userID, token string) error
}

// TokenBlacklist is the revocation registry keyed by token JTI. Entries expire via
// the cache tier's native TTL; Cleanup is an advisory maintenance sweep only.
type TokenBlacklist interface {
	Add(ctx context.Context, entry domain.BlacklistEntry, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, domain.BlacklistReason, error)
	Cleanup(ctx context.Context) (int64, error)
}

// RateLimitStore maintains fixed-window counters. The TTL is attached only when a
// counter transitions from absent to its first value; later increments within the
// window must not extend it. WindowTTL reports how long the active window has left,
// zero when no window is open.
type RateLimitStore interface {
	IncrementAndGet(ctx context.Context, scope domain.RateLimitScope, window time.Duration) (int64, error)
	IncrementByAndGet(ctx context.Context, scope domain.RateLimitScope, delta int64, window time.Duration) (int64, error)
	CurrentCount(ctx context.Context, scope domain.RateLimitScope) (int64, error)
	WindowTTL(ctx context.Context, scope domain.RateLimitScope) (time.Duration, error)
	Reset(ctx context.Context, scope domain.RateLimitScope) error
	ResetAll(ctx context.Context, identifier string, limitType domain.RateLimitType) (int64, error)
	ResetByEndpoint(ctx context.Context, endpoint string, limitType domain.RateLimitType) (int64, error)
}

// PermissionSource lists registered endpoint permission rules for resolver syncs
// and gateway read projections.
type PermissionSource interface {
	ListAll(ctx context.Context) ([]domain.EndpointPermission, error)
	ListByService(ctx context.Context, serviceName string) ([]domain.EndpointPermission, error)
}
