package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

// StubPublisher logs revocation events instead of sending them to Kafka.
// Useful for development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly revocation publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

// PublishTokenRevoked logs the event and drops it.
func (p *StubPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	p.logger.Info("stub revocation event published",
		zap.String("jti", event.JTI),
		zap.String("user_id", event.UserID),
		zap.String("reason", string(event.Reason)),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

var _ port.RevocationEventPublisher = (*StubPublisher)(nil)
