package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

// ErrInvalidLimit indicates a non-positive limit or window was supplied.
var ErrInvalidLimit = errors.New("limit and window must be positive")

// RateLimitDecision is the outcome of one fixed-window check. RetryAfter is only
// populated on exceeded decisions: the active window's remaining lifetime, or the
// full window when the store could not report it.
type RateLimitDecision struct {
	Scope      domain.RateLimitScope
	Count      int64
	Limit      int64
	Exceeded   bool
	RetryAfter time.Duration
}

// RateLimitService enforces fixed-window limits over the counter store. The store's
// increment is atomic per key, so concurrent callers in the same window observe a
// strictly increasing sequence.
type RateLimitService struct {
	store  port.RateLimitStore
	logger *zap.Logger
}

// NewRateLimitService constructs a RateLimitService.
func NewRateLimitService(store port.RateLimitStore, logger *zap.Logger) *RateLimitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitService{store: store, logger: logger}
}

// Check increments the scope's counter and reports whether the configured limit
// is reached. The count includes the current request: with limit 3, the third
// request is already exceeded.
func (s *RateLimitService) Check(ctx context.Context, scope domain.RateLimitScope, limit int64, window time.Duration) (RateLimitDecision, error) {
	return s.CheckN(ctx, scope, 1, limit, window)
}

// CheckN is the batch variant for pre-aggregated requests.
func (s *RateLimitService) CheckN(ctx context.Context, scope domain.RateLimitScope, delta, limit int64, window time.Duration) (RateLimitDecision, error) {
	if limit <= 0 || window <= 0 {
		return RateLimitDecision{}, ErrInvalidLimit
	}
	if delta < 1 {
		return RateLimitDecision{}, fmt.Errorf("delta must be at least 1")
	}

	count, err := s.store.IncrementByAndGet(ctx, scope, delta, window)
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("increment rate limit: %w", err)
	}

	decision := RateLimitDecision{
		Scope:    scope,
		Count:    count,
		Limit:    limit,
		Exceeded: domain.IsExceeded(count, limit),
	}

	if decision.Exceeded {
		decision.RetryAfter = window
		if remaining, err := s.store.WindowTTL(ctx, scope); err == nil && remaining > 0 {
			decision.RetryAfter = remaining
		}
	}

	return decision, nil
}

// CurrentCount reads the active window's counter without incrementing it.
func (s *RateLimitService) CurrentCount(ctx context.Context, scope domain.RateLimitScope) (int64, error) {
	count, err := s.store.CurrentCount(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("load rate limit count: %w", err)
	}
	return count, nil
}

// Reset clears one counter. Administrative override only, never the serving path.
func (s *RateLimitService) Reset(ctx context.Context, scope domain.RateLimitScope) error {
	if err := s.store.Reset(ctx, scope); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	s.logger.Info("rate limit counter reset",
		zap.String("type", string(scope.Type)),
		zap.String("identifier", scope.Identifier),
		zap.String("endpoint", scope.Endpoint),
	)
	return nil
}

// ResetAll clears every counter for an identifier under the limit type.
func (s *RateLimitService) ResetAll(ctx context.Context, identifier string, limitType domain.RateLimitType) (int64, error) {
	deleted, err := s.store.ResetAll(ctx, identifier, limitType)
	if err != nil {
		return deleted, fmt.Errorf("reset rate limits for identifier: %w", err)
	}
	s.logger.Info("rate limit counters reset for identifier",
		zap.String("type", string(limitType)),
		zap.String("identifier", identifier),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

// ResetByEndpoint clears every counter for an endpoint under the limit type.
func (s *RateLimitService) ResetByEndpoint(ctx context.Context, endpoint string, limitType domain.RateLimitType) (int64, error) {
	deleted, err := s.store.ResetByEndpoint(ctx, endpoint, limitType)
	if err != nil {
		return deleted, fmt.Errorf("reset rate limits for endpoint: %w", err)
	}
	s.logger.Info("rate limit counters reset for endpoint",
		zap.String("type", string(limitType)),
		zap.String("endpoint", endpoint),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}
