package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

const refreshTokenBytes = 32

var (
	errMissingSecret   = errors.New("jwt: signing secret is required")
	errUnexpectedAlg   = errors.New("jwt: unexpected signing method")
	errMalformedClaims = errors.New("jwt: malformed claims")
)

// JWTIssuer mints HS256 access tokens and opaque refresh tokens. Access tokens
// carry the user id, role set, and a JTI the blacklist keys on; refresh tokens
// are random values whose state lives entirely in the session store.
type JWTIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      port.Clock
	ids        port.IDGenerator
}

// NewJWTIssuer constructs a JWTIssuer.
func NewJWTIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration, clock port.Clock, ids port.IDGenerator) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errMissingSecret
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}

	return &JWTIssuer{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clock,
		ids:        ids,
	}, nil
}

// IssuePair mints an access/refresh token pair for the user.
func (i *JWTIssuer) IssuePair(userID string, roles []string) (port.TokenArtifacts, error) {
	now := i.clock.Now()
	accessJTI := i.ids.NewID()
	accessExpiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":   userID,
		"jti":   accessJTI,
		"roles": roles,
		"iss":   i.issuer,
		"iat":   now.Unix(),
		"exp":   accessExpiresAt.Unix(),
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return port.TokenArtifacts{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := newOpaqueToken()
	if err != nil {
		return port.TokenArtifacts{}, err
	}

	return port.TokenArtifacts{
		AccessToken:      accessToken,
		AccessTokenJTI:   accessJTI,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshTokenJTI:  i.ids.NewID(),
		RefreshExpiresAt: now.Add(i.refreshTTL),
	}, nil
}

// ParseAccessToken verifies the signature and expiry, then extracts the claims.
// Expiry failures wrap jwt.ErrTokenExpired so callers can branch on it.
func (i *JWTIssuer) ParseAccessToken(token string) (*port.AccessClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: %s", errUnexpectedAlg, t.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock.Now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errMalformedClaims
	}

	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if sub == "" || jti == "" {
		return nil, errMalformedClaims
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, errMalformedClaims
	}

	return &port.AccessClaims{
		UserID:    sub,
		JTI:       jti,
		Roles:     rolesFromClaims(claims),
		ExpiresAt: expiresAt.Time,
	}, nil
}

func rolesFromClaims(claims jwt.MapClaims) []string {
	raw, ok := claims["roles"].([]any)
	if !ok {
		return nil
	}

	roles := make([]string, 0, len(raw))
	for _, entry := range raw {
		if role, ok := entry.(string); ok {
			roles = append(roles, role)
		}
	}
	return roles
}

func newOpaqueToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ port.TokenIssuer = (*JWTIssuer)(nil)
