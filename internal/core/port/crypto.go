package port

import (
	"context"
	"errors"
	"time"
)

// ErrCredentialsRejected is returned by CredentialVerifier implementations when
// the identifier is unknown or the password does not match.
var ErrCredentialsRejected = errors.New("credentials rejected")

// AccessClaims carries the verified content of an access token.
type AccessClaims struct {
	UserID    string
	JTI       string
	Roles     []string
	ExpiresAt time.Time
}

// TokenIssuer mints and verifies token pairs for authenticated users.
type TokenIssuer interface {
	IssuePair(userID string, roles []string) (TokenArtifacts, error)
	ParseAccessToken(token string) (*AccessClaims, error)
}

// TokenArtifacts mirrors domain.TokenPair at the issuer boundary.
type TokenArtifacts struct {
	AccessToken      string
	AccessTokenJTI   string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshTokenJTI  string
	RefreshExpiresAt time.Time
}

// CredentialVerifier validates login credentials. Identity storage is owned by the
// surrounding platform; the runtime only consumes the verification outcome.
type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, identifier, password string) (userID string, roles []string, err error)
	// RolesFor resolves the current role set for an already-authenticated user,
	// used when rotating tokens without re-presenting credentials.
	RolesFor(ctx context.Context, userID string) ([]string, error)
}
