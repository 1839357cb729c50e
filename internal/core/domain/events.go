package domain

import "time"

// TokenRevokedEvent notifies sibling services that a token identifier was blacklisted.
type TokenRevokedEvent struct {
	JTI       string          `json:"jti"`
	UserID    string          `json:"user_id,omitempty"`
	Reason    BlacklistReason `json:"reason"`
	RevokedAt time.Time       `json:"revoked_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Origin    string          `json:"origin,omitempty"`
}
