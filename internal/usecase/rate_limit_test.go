package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
)

func loginScope() domain.RateLimitScope {
	return domain.RateLimitScope{
		Type:       domain.RateLimitTypeIP,
		Identifier: "10.0.0.1",
		Endpoint:   "/api/v1/auth/login",
	}
}

func TestRateLimitService_LimitBoundary(t *testing.T) {
	service := NewRateLimitService(newMemRateLimitStore(), nil)
	ctx := context.Background()

	// With limit 3, counts 1 and 2 pass; count 3 and above are exceeded.
	expected := []bool{false, false, true, true}
	for i, wantExceeded := range expected {
		decision, err := service.Check(ctx, loginScope(), 3, time.Minute)
		if err != nil {
			t.Fatalf("Check returned error: %v", err)
		}
		if decision.Count != int64(i+1) {
			t.Fatalf("expected count %d, got %d", i+1, decision.Count)
		}
		if decision.Exceeded != wantExceeded {
			t.Fatalf("count %d: expected exceeded=%v, got %v", decision.Count, wantExceeded, decision.Exceeded)
		}
	}
}

func TestRateLimitService_CheckN(t *testing.T) {
	service := NewRateLimitService(newMemRateLimitStore(), nil)
	ctx := context.Background()

	decision, err := service.CheckN(ctx, loginScope(), 5, 10, time.Minute)
	if err != nil {
		t.Fatalf("CheckN returned error: %v", err)
	}
	if decision.Count != 5 || decision.Exceeded {
		t.Fatalf("expected count 5 within limit, got %+v", decision)
	}

	if _, err := service.CheckN(ctx, loginScope(), 0, 10, time.Minute); err == nil {
		t.Fatalf("expected error for delta below 1")
	}
}

func TestRateLimitService_InvalidLimitOrWindow(t *testing.T) {
	service := NewRateLimitService(newMemRateLimitStore(), nil)
	ctx := context.Background()

	if _, err := service.Check(ctx, loginScope(), 0, time.Minute); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if _, err := service.Check(ctx, loginScope(), 3, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestRateLimitService_ResetOperations(t *testing.T) {
	store := newMemRateLimitStore()
	service := NewRateLimitService(store, nil)
	ctx := context.Background()

	if _, err := service.Check(ctx, loginScope(), 3, time.Minute); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}

	if err := service.Reset(ctx, loginScope()); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	count, err := service.CurrentCount(ctx, loginScope())
	if err != nil {
		t.Fatalf("CurrentCount returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0 after reset, got %d", count)
	}
}
