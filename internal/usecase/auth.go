package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

var (
	// ErrInvalidCredentials indicates the provided identifier or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken indicates the presented refresh token does not exist or was revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken indicates the presented refresh token has expired.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrInvalidAccessToken indicates the access token is malformed or failed signature validation.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrTokenRevoked indicates the access token's identifier is blacklisted.
	ErrTokenRevoked = errors.New("token revoked")
)

// AuthService composes the session store, blacklist, and token issuer into the
// login, refresh, and logout flows.
type AuthService struct {
	verifier  port.CredentialVerifier
	issuer    port.TokenIssuer
	sessions  *SessionStore
	blacklist *BlacklistService
	clock     port.Clock
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	verifier port.CredentialVerifier,
	issuer port.TokenIssuer,
	sessions *SessionStore,
	blacklist *BlacklistService,
	clock port.Clock,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = port.ClockFunc(func() time.Time { return time.Now().UTC() })
	}

	return &AuthService{
		verifier:  verifier,
		issuer:    issuer,
		sessions:  sessions,
		blacklist: blacklist,
		clock:     clock,
		logger:    logger,
	}
}

// Login verifies credentials and issues a fresh token pair, superseding any
// refresh session the user already holds.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.TokenPair, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return domain.TokenPair{}, ErrInvalidCredentials
	}

	userID, roles, err := s.verifier.VerifyCredentials(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, port.ErrCredentialsRejected) || errors.Is(err, ErrInvalidCredentials) {
			return domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.TokenPair{}, fmt.Errorf("verify credentials: %w", err)
	}

	return s.issueAndStore(ctx, userID, roles)
}

// Refresh rotates a presented refresh token into a new pair. The consumed token's
// identifier is blacklisted for its remaining lifetime, so a replay of the old
// token is rejected as a security event instead of silently minting again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.TokenPair{}, ErrInvalidRefreshToken
	}

	record, err := s.sessions.RecordByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, err
	}

	now := s.clock.Now()
	if record.IsExpired(now) {
		if err := s.sessions.DeleteByUser(ctx, record.UserID); err != nil {
			s.logger.Warn("failed to remove expired refresh session", zap.String("user_id", record.UserID), zap.Error(err))
		}
		return domain.TokenPair{}, ErrExpiredRefreshToken
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, record.ID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if blacklisted {
		// A rotated token came back: the original bearer or an attacker replayed
		// it. Revoke the whole session so neither party keeps a valid pair.
		s.logger.Warn("rotated refresh token replayed, revoking session",
			zap.String("user_id", record.UserID),
			zap.String("jti", record.ID),
		)
		if err := s.blacklist.Blacklist(ctx, record.ID, record.ExpiresAt, domain.BlacklistReasonSecurityBreach); err != nil {
			s.logger.Warn("failed to escalate replayed token", zap.Error(err))
		}
		if err := s.sessions.DeleteByUser(ctx, record.UserID); err != nil {
			s.logger.Warn("failed to revoke session after replay", zap.Error(err))
		}
		return domain.TokenPair{}, ErrInvalidRefreshToken
	}

	roles, err := s.verifier.RolesFor(ctx, record.UserID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("resolve roles: %w", err)
	}

	pair, err := s.issueAndStore(ctx, record.UserID, roles)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.blacklist.Blacklist(ctx, record.ID, record.ExpiresAt, domain.BlacklistReasonSecurityBreach); err != nil {
		s.logger.Warn("failed to blacklist consumed refresh token", zap.String("jti", record.ID), zap.Error(err))
	}

	return pair, nil
}

// Logout blacklists the caller's access token and removes the refresh session.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return err
	}

	if err := s.blacklist.Blacklist(ctx, claims.JTI, claims.ExpiresAt, domain.BlacklistReasonLogout); err != nil {
		return err
	}

	if err := s.sessions.DeleteByUser(ctx, claims.UserID); err != nil {
		return err
	}

	return nil
}

// VerifyAccessToken parses the token and checks it against the blacklist. A cache
// tier outage surfaces as an error so the transport boundary applies its own
// fail-open/fail-closed policy, never this method.
func (s *AuthService) VerifyAccessToken(ctx context.Context, accessToken string) (*port.AccessClaims, error) {
	claims, err := s.parseToken(accessToken)
	if err != nil {
		return nil, err
	}

	blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.JTI)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func (s *AuthService) issueAndStore(ctx context.Context, userID string, roles []string) (domain.TokenPair, error) {
	artifacts, err := s.issuer.IssuePair(userID, roles)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}

	record := domain.RefreshTokenRecord{
		ID:         artifacts.RefreshTokenJTI,
		UserID:     userID,
		TokenValue: artifacts.RefreshToken,
		IssuedAt:   s.clock.Now(),
		ExpiresAt:  artifacts.RefreshExpiresAt,
	}
	if err := s.sessions.Save(ctx, record); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      artifacts.AccessToken,
		AccessTokenJTI:   artifacts.AccessTokenJTI,
		AccessExpiresAt:  artifacts.AccessExpiresAt,
		RefreshToken:     artifacts.RefreshToken,
		RefreshTokenJTI:  artifacts.RefreshTokenJTI,
		RefreshExpiresAt: artifacts.RefreshExpiresAt,
	}, nil
}

func (s *AuthService) parseToken(accessToken string) (*port.AccessClaims, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrInvalidAccessToken
	}

	claims, err := s.issuer.ParseAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}
