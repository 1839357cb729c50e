package redis

import (
	"context"
	"testing"
	"time"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
)

func testScope(endpoint string) domain.RateLimitScope {
	return domain.RateLimitScope{
		Type:       domain.RateLimitTypeIP,
		Identifier: "10.0.0.1",
		Endpoint:   endpoint,
	}
}

func TestRateLimitRepository_IncrementSequence(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()
	scope := testScope("/api/v1/auth/login")

	for want := int64(1); want <= 5; want++ {
		count, err := repo.IncrementAndGet(ctx, scope, time.Minute)
		if err != nil {
			t.Fatalf("IncrementAndGet returned error: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
	}
}

func TestRateLimitRepository_FixedWindowDoesNotExtend(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()
	scope := testScope("/api/v1/auth/login")
	window := 10 * time.Second
	key := "rate_limit:IP_BASED:10.0.0.1:/api/v1/auth/login"

	if _, err := repo.IncrementAndGet(ctx, scope, window); err != nil {
		t.Fatalf("IncrementAndGet returned error: %v", err)
	}

	server.FastForward(4 * time.Second)

	// A second increment inside the window must not refresh the TTL.
	if _, err := repo.IncrementAndGet(ctx, scope, window); err != nil {
		t.Fatalf("IncrementAndGet returned error: %v", err)
	}

	remaining := server.TTL(key)
	if remaining > 6*time.Second {
		t.Fatalf("expected ttl to keep draining, got %v", remaining)
	}
}

func TestRateLimitRepository_WindowRollsOver(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()
	scope := testScope("/api/v1/auth/login")
	window := 5 * time.Second

	for i := 0; i < 5; i++ {
		if _, err := repo.IncrementAndGet(ctx, scope, window); err != nil {
			t.Fatalf("IncrementAndGet returned error: %v", err)
		}
	}

	server.FastForward(6 * time.Second)

	count, err := repo.IncrementAndGet(ctx, scope, window)
	if err != nil {
		t.Fatalf("IncrementAndGet returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected fresh window to start at 1, got %d", count)
	}
}

func TestRateLimitRepository_IncrementByAndGet(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()
	scope := testScope("/api/v1/gateway/authorize")

	count, err := repo.IncrementByAndGet(ctx, scope, 4, time.Minute)
	if err != nil {
		t.Fatalf("IncrementByAndGet returned error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected count 4, got %d", count)
	}

	if _, err := repo.IncrementByAndGet(ctx, scope, 0, time.Minute); err == nil {
		t.Fatalf("expected error for delta below 1")
	}
}

func TestRateLimitRepository_CurrentCountAndReset(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()
	scope := testScope("/api/v1/auth/refresh")

	if count, err := repo.CurrentCount(ctx, scope); err != nil || count != 0 {
		t.Fatalf("expected zero count for absent key, got %d err=%v", count, err)
	}

	if _, err := repo.IncrementByAndGet(ctx, scope, 3, time.Minute); err != nil {
		t.Fatalf("IncrementByAndGet returned error: %v", err)
	}

	if count, err := repo.CurrentCount(ctx, scope); err != nil || count != 3 {
		t.Fatalf("expected count 3, got %d err=%v", count, err)
	}

	if err := repo.Reset(ctx, scope); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	if count, _ := repo.CurrentCount(ctx, scope); count != 0 {
		t.Fatalf("expected count 0 after reset, got %d", count)
	}
}

func TestRateLimitRepository_ResetAllForIdentifier(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()

	endpoints := []string{"/api/v1/auth/login", "/api/v1/auth/refresh"}
	for _, endpoint := range endpoints {
		if _, err := repo.IncrementAndGet(ctx, testScope(endpoint), time.Minute); err != nil {
			t.Fatalf("IncrementAndGet returned error: %v", err)
		}
	}

	other := domain.RateLimitScope{Type: domain.RateLimitTypeIP, Identifier: "10.0.0.2", Endpoint: endpoints[0]}
	if _, err := repo.IncrementAndGet(ctx, other, time.Minute); err != nil {
		t.Fatalf("IncrementAndGet returned error: %v", err)
	}

	deleted, err := repo.ResetAll(ctx, "10.0.0.1", domain.RateLimitTypeIP)
	if err != nil {
		t.Fatalf("ResetAll returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted counters, got %d", deleted)
	}

	if count, _ := repo.CurrentCount(ctx, other); count != 1 {
		t.Fatalf("expected unrelated identifier untouched, got %d", count)
	}
}

func TestRateLimitRepository_ResetByEndpoint(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()
	endpoint := "/api/v1/auth/login"

	for _, identifier := range []string{"10.0.0.1", "10.0.0.2"} {
		scope := domain.RateLimitScope{Type: domain.RateLimitTypeIP, Identifier: identifier, Endpoint: endpoint}
		if _, err := repo.IncrementAndGet(ctx, scope, time.Minute); err != nil {
			t.Fatalf("IncrementAndGet returned error: %v", err)
		}
	}

	deleted, err := repo.ResetByEndpoint(ctx, endpoint, domain.RateLimitTypeIP)
	if err != nil {
		t.Fatalf("ResetByEndpoint returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted counters, got %d", deleted)
	}
}

func TestRateLimitRepository_WindowTTL(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, "rate_limit")

	ctx := context.Background()
	scope := testScope("/api/v1/auth/login")

	ttl, err := repo.WindowTTL(ctx, scope)
	if err != nil {
		t.Fatalf("WindowTTL returned error: %v", err)
	}
	if ttl != 0 {
		t.Fatalf("expected zero ttl without an open window, got %v", ttl)
	}

	if _, err := repo.IncrementAndGet(ctx, scope, time.Minute); err != nil {
		t.Fatalf("IncrementAndGet returned error: %v", err)
	}

	server.FastForward(40 * time.Second)

	ttl, err = repo.WindowTTL(ctx, scope)
	if err != nil {
		t.Fatalf("WindowTTL returned error: %v", err)
	}
	if ttl != 20*time.Second {
		t.Fatalf("expected 20s left in the window, got %v", ttl)
	}

	server.FastForward(21 * time.Second)

	if ttl, _ := repo.WindowTTL(ctx, scope); ttl != 0 {
		t.Fatalf("expected expired window to report zero, got %v", ttl)
	}
}
