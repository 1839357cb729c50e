package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
)

func TestBlacklistRepository_AddAndContains(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewBlacklistRepository(client, "blacklist_token")

	ctx := context.Background()
	ttl := 10 * time.Minute
	entry := domain.BlacklistEntry{JTI: "jti-123", Reason: domain.BlacklistReasonLogout}

	if err := repo.Add(ctx, entry, ttl); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	blacklisted, reason, err := repo.Contains(ctx, "jti-123")
	if err != nil {
		t.Fatalf("Contains returned error: %v", err)
	}
	if !blacklisted {
		t.Fatalf("expected jti to be blacklisted")
	}
	if reason != domain.BlacklistReasonLogout {
		t.Fatalf("expected reason LOGOUT, got %s", reason)
	}

	remaining := server.TTL("blacklist_token:jti-123")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestBlacklistRepository_ContainsMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewBlacklistRepository(client, "")

	blacklisted, reason, err := repo.Contains(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Contains returned error: %v", err)
	}
	if blacklisted || reason != "" {
		t.Fatalf("expected miss, got blacklisted=%v reason=%q", blacklisted, reason)
	}
}

func TestBlacklistRepository_EntryExpires(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewBlacklistRepository(client, "blacklist_token")

	ctx := context.Background()
	entry := domain.BlacklistEntry{JTI: "jti-short", Reason: domain.BlacklistReasonPasswordChange}

	if err := repo.Add(ctx, entry, time.Second); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	server.FastForward(2 * time.Second)

	blacklisted, _, err := repo.Contains(ctx, "jti-short")
	if err != nil {
		t.Fatalf("Contains returned error: %v", err)
	}
	if blacklisted {
		t.Fatalf("expected entry to be purged after ttl")
	}
}

func TestBlacklistRepository_AddValidation(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewBlacklistRepository(client, "blacklist_token")

	ctx := context.Background()

	if err := repo.Add(ctx, domain.BlacklistEntry{JTI: "  "}, time.Minute); err == nil {
		t.Fatalf("expected error for blank jti")
	}
	if err := repo.Add(ctx, domain.BlacklistEntry{JTI: strings.Repeat("a", 256)}, time.Minute); err == nil {
		t.Fatalf("expected error for oversized jti")
	}
	if err := repo.Add(ctx, domain.BlacklistEntry{JTI: "jti"}, 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}

func TestBlacklistRepository_CleanupRemovesOnlyUnexpiringKeys(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewBlacklistRepository(client, "blacklist_token")

	ctx := context.Background()

	if err := repo.Add(ctx, domain.BlacklistEntry{JTI: "jti-ok", Reason: domain.BlacklistReasonLogout}, time.Hour); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	// A key written without TTL simulates residue from an interrupted writer.
	if err := client.Set(ctx, "blacklist_token:jti-stuck", "LOGOUT", 0).Err(); err != nil {
		t.Fatalf("seed stuck key: %v", err)
	}

	deleted, err := repo.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted key, got %d", deleted)
	}

	if blacklisted, _, _ := repo.Contains(ctx, "jti-ok"); !blacklisted {
		t.Fatalf("expected ttl-bounded entry to survive cleanup")
	}
	if blacklisted, _, _ := repo.Contains(ctx, "jti-stuck"); blacklisted {
		t.Fatalf("expected unexpiring entry to be removed")
	}
}

func TestBlacklistRepository_OutageTaggedStoreUnavailable(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewBlacklistRepository(client, "blacklist_token")
	server.Close()

	_, _, err := repo.Contains(context.Background(), "jti-123")
	if err == nil {
		t.Fatalf("expected error once the server is gone")
	}
	if !errors.Is(err, repository.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable tag, got %v", err)
	}

	entry := domain.BlacklistEntry{JTI: "jti-123", Reason: domain.BlacklistReasonLogout}
	if err := repo.Add(context.Background(), entry, time.Minute); !errors.Is(err, repository.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable tag on write, got %v", err)
	}
}
