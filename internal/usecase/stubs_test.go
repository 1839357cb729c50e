package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
)

var errStubUnavailable = errors.New("stub store unavailable")

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock(at time.Time) *stubClock {
	return &stubClock{now: at}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memTokenStore struct {
	mu      sync.Mutex
	byUser  map[string]domain.RefreshTokenRecord
	failAll bool
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{byUser: make(map[string]domain.RefreshTokenRecord)}
}

func (s *memTokenStore) Save(_ context.Context, record domain.RefreshTokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStubUnavailable
	}
	s.byUser[record.UserID] = record
	return nil
}

func (s *memTokenStore) FindByUserID(_ context.Context, userID string) (*domain.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStubUnavailable
	}
	record, ok := s.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (s *memTokenStore) FindByToken(_ context.Context, token string) (*domain.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStubUnavailable
	}
	for _, record := range s.byUser {
		if record.TokenValue == token {
			out := record
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memTokenStore) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStubUnavailable
	}
	delete(s.byUser, userID)
	return nil
}

func (s *memTokenStore) DeleteByToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStubUnavailable
	}
	for userID, record := range s.byUser {
		if record.TokenValue == token {
			delete(s.byUser, userID)
		}
	}
	return nil
}

type memTokenCache struct {
	mu        sync.Mutex
	byUser    map[string]string
	byToken   map[string]string
	failReads bool
	failSets  bool
	setCalls  int
}

func newMemTokenCache() *memTokenCache {
	return &memTokenCache{byUser: make(map[string]string), byToken: make(map[string]string)}
}

func (c *memTokenCache) SetPair(_ context.Context, userID, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	if c.failSets {
		return errStubUnavailable
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", ttl)
	}
	c.byUser[userID] = token
	c.byToken[token] = userID
	return nil
}

func (c *memTokenCache) GetTokenByUser(_ context.Context, userID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failReads {
		return "", false, errStubUnavailable
	}
	token, ok := c.byUser[userID]
	return token, ok, nil
}

func (c *memTokenCache) GetUserByToken(_ context.Context, token string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failReads {
		return "", false, errStubUnavailable
	}
	userID, ok := c.byToken[token]
	return userID, ok, nil
}

func (c *memTokenCache) DeletePair(_ context.Context, userID, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		token = c.byUser[userID]
	}
	if userID == "" {
		userID = c.byToken[token]
	}
	delete(c.byUser, userID)
	delete(c.byToken, token)
	return nil
}

func (c *memTokenCache) contains(userID, token string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, forward := c.byUser[userID]
	_, reverse := c.byToken[token]
	return forward, reverse
}

type memBlacklist struct {
	mu       sync.Mutex
	entries  map[string]domain.BlacklistEntry
	ttls     map[string]time.Duration
	failAll  bool
	cleanups int
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{entries: make(map[string]domain.BlacklistEntry), ttls: make(map[string]time.Duration)}
}

func (b *memBlacklist) Add(_ context.Context, entry domain.BlacklistEntry, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return errStubUnavailable
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", ttl)
	}
	b.entries[entry.JTI] = entry
	b.ttls[entry.JTI] = ttl
	return nil
}

func (b *memBlacklist) Contains(_ context.Context, jti string) (bool, domain.BlacklistReason, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return false, "", errStubUnavailable
	}
	entry, ok := b.entries[jti]
	if !ok {
		return false, "", nil
	}
	return true, entry.Reason, nil
}

func (b *memBlacklist) Cleanup(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAll {
		return 0, errStubUnavailable
	}
	b.cleanups++
	return 0, nil
}

func (b *memBlacklist) ttlOf(jti string) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ttl, ok := b.ttls[jti]
	return ttl, ok
}

type memRateLimitStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	windows map[string]time.Duration
}

func newMemRateLimitStore() *memRateLimitStore {
	return &memRateLimitStore{
		counts:  make(map[string]int64),
		windows: make(map[string]time.Duration),
	}
}

func (s *memRateLimitStore) key(scope domain.RateLimitScope) string {
	return fmt.Sprintf("%s:%s:%s", scope.Type, scope.Identifier, scope.Endpoint)
}

func (s *memRateLimitStore) IncrementAndGet(ctx context.Context, scope domain.RateLimitScope, window time.Duration) (int64, error) {
	return s.IncrementByAndGet(ctx, scope, 1, window)
}

func (s *memRateLimitStore) IncrementByAndGet(_ context.Context, scope domain.RateLimitScope, delta int64, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(scope)
	if s.counts[key] == 0 {
		s.windows[key] = window
	}
	s.counts[key] += delta
	return s.counts[key], nil
}

func (s *memRateLimitStore) WindowTTL(_ context.Context, scope domain.RateLimitScope) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[s.key(scope)], nil
}

func (s *memRateLimitStore) CurrentCount(_ context.Context, scope domain.RateLimitScope) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[s.key(scope)], nil
}

func (s *memRateLimitStore) Reset(_ context.Context, scope domain.RateLimitScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, s.key(scope))
	return nil
}

func (s *memRateLimitStore) ResetAll(_ context.Context, identifier string, limitType domain.RateLimitType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := fmt.Sprintf("%s:%s:", limitType, identifier)
	var deleted int64
	for key := range s.counts {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.counts, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memRateLimitStore) ResetByEndpoint(_ context.Context, endpoint string, limitType domain.RateLimitType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for key := range s.counts {
		if len(key) > len(endpoint) && key[len(key)-len(endpoint):] == endpoint && key[:len(limitType)] == string(limitType) {
			delete(s.counts, key)
			deleted++
		}
	}
	return deleted, nil
}

type stubPermissionSource struct {
	mu          sync.Mutex
	permissions []domain.EndpointPermission
	err         error
}

func (s *stubPermissionSource) ListAll(context.Context) ([]domain.EndpointPermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.EndpointPermission, len(s.permissions))
	copy(out, s.permissions)
	return out, nil
}

func (s *stubPermissionSource) ListByService(_ context.Context, serviceName string) ([]domain.EndpointPermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.EndpointPermission, 0)
	for _, permission := range s.permissions {
		if permission.ServiceName == serviceName {
			out = append(out, permission)
		}
	}
	return out, nil
}

type stubVerifier struct {
	userID string
	roles  []string
	err    error
}

func (v *stubVerifier) VerifyCredentials(context.Context, string, string) (string, []string, error) {
	if v.err != nil {
		return "", nil, v.err
	}
	return v.userID, v.roles, nil
}

func (v *stubVerifier) RolesFor(context.Context, string) ([]string, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.roles, nil
}

type stubIssuer struct {
	mu     sync.Mutex
	serial int
	ttl    time.Duration
	clock  port.Clock
	issued map[string]port.AccessClaims
}

func newStubIssuer(clock port.Clock) *stubIssuer {
	return &stubIssuer{ttl: time.Hour, clock: clock, issued: make(map[string]port.AccessClaims)}
}

func (i *stubIssuer) IssuePair(userID string, roles []string) (port.TokenArtifacts, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.serial++
	now := i.clock.Now()
	artifacts := port.TokenArtifacts{
		AccessToken:      fmt.Sprintf("access-%s-%d", userID, i.serial),
		AccessTokenJTI:   fmt.Sprintf("ajti-%s-%d", userID, i.serial),
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     fmt.Sprintf("refresh-%s-%d", userID, i.serial),
		RefreshTokenJTI:  fmt.Sprintf("rjti-%s-%d", userID, i.serial),
		RefreshExpiresAt: now.Add(i.ttl),
	}
	i.issued[artifacts.AccessToken] = port.AccessClaims{
		UserID:    userID,
		JTI:       artifacts.AccessTokenJTI,
		Roles:     roles,
		ExpiresAt: artifacts.AccessExpiresAt,
	}
	return artifacts, nil
}

func (i *stubIssuer) ParseAccessToken(token string) (*port.AccessClaims, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	claims, ok := i.issued[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &claims, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TokenRevokedEvent
}

func (p *recordingPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []domain.TokenRevokedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.TokenRevokedEvent, len(p.events))
	copy(out, p.events)
	return out
}
