package domain

import (
	"strings"
	"time"
)

// BlacklistReason enumerates why a token identifier was revoked.
type BlacklistReason string

const (
	// BlacklistReasonLogout marks a token revoked through a voluntary logout.
	BlacklistReasonLogout BlacklistReason = "LOGOUT"
	// BlacklistReasonForceLogout marks a token revoked by an administrative force logout.
	BlacklistReasonForceLogout BlacklistReason = "FORCE_LOGOUT"
	// BlacklistReasonSecurityBreach marks a token revoked after a detected compromise.
	BlacklistReasonSecurityBreach BlacklistReason = "SECURITY_BREACH"
	// BlacklistReasonPasswordChange marks a token revoked because the owner changed credentials.
	BlacklistReasonPasswordChange BlacklistReason = "PASSWORD_CHANGE"
)

// ParseBlacklistReason normalises textual input into a supported reason, defaulting to LOGOUT.
func ParseBlacklistReason(value string) BlacklistReason {
	switch BlacklistReason(strings.ToUpper(strings.TrimSpace(value))) {
	case BlacklistReasonForceLogout:
		return BlacklistReasonForceLogout
	case BlacklistReasonSecurityBreach:
		return BlacklistReasonSecurityBreach
	case BlacklistReasonPasswordChange:
		return BlacklistReasonPasswordChange
	default:
		return BlacklistReasonLogout
	}
}

// RefreshTokenRecord identifies a user's single active refresh session.
type RefreshTokenRecord struct {
	ID         string
	UserID     string
	TokenValue string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the record has elapsed its validity window.
func (r RefreshTokenRecord) IsExpired(at time.Time) bool {
	return !r.ExpiresAt.After(at)
}

// RemainingLifetime returns how long the record stays valid from the supplied moment.
// A non-positive result means the record already expired.
func (r RefreshTokenRecord) RemainingLifetime(at time.Time) time.Duration {
	return r.ExpiresAt.Sub(at)
}

// BlacklistEntry is a revoked token identifier kept until the token itself expires.
type BlacklistEntry struct {
	JTI           string
	Reason        BlacklistReason
	BlacklistedAt time.Time
	ExpiresAt     time.Time
}

// minBlacklistTTL keeps already-expired tokens recorded long enough to win lookup races.
const minBlacklistTTL = time.Second

// TTL returns how long the entry must outlive the supplied moment.
// An already-expired token is still recorded for at least one second.
func (e BlacklistEntry) TTL(at time.Time) time.Duration {
	ttl := e.ExpiresAt.Sub(at)
	if ttl < minBlacklistTTL {
		return minBlacklistTTL
	}
	return ttl
}

// TokenPair bundles the artifacts issued by a successful login or rotation.
type TokenPair struct {
	AccessToken      string
	AccessTokenJTI   string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshTokenJTI  string
	RefreshExpiresAt time.Time
}
