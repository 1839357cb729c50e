package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

// RevocationConsumer applies token.revoked events from sibling services to the
// local blacklist. It writes to the blacklist store directly rather than through
// the blacklist service, so consumed events are never re-published.
type RevocationConsumer struct {
	blacklist port.TokenBlacklist
	origin    string
	logger    *zap.Logger
	now       func() time.Time
}

// NewRevocationConsumer constructs a consumer that keeps the blacklist current.
func NewRevocationConsumer(blacklist port.TokenBlacklist, origin string, logger *zap.Logger) *RevocationConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationConsumer{
		blacklist: blacklist,
		origin:    origin,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the consumer clock for deterministic testing.
func (c *RevocationConsumer) WithClock(clock func() time.Time) *RevocationConsumer {
	if clock != nil {
		c.now = clock
	}
	return c
}

// HandleMessage decodes a Kafka message prior to processing.
func (c *RevocationConsumer) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("decode token revoked event: %w", err)
	}

	return c.HandleEvent(ctx, envelope.Payload)
}

// HandleEvent records the revocation locally. Events that originated from this
// instance are skipped: the JTI was blacklisted before the event was emitted.
func (c *RevocationConsumer) HandleEvent(ctx context.Context, event domain.TokenRevokedEvent) error {
	if event.JTI == "" {
		return fmt.Errorf("event missing jti")
	}

	if c.origin != "" && event.Origin == c.origin {
		c.logger.Debug("skip own revocation event", zap.String("jti", event.JTI))
		return nil
	}

	now := c.now()
	entry := domain.BlacklistEntry{
		JTI:           event.JTI,
		Reason:        event.Reason,
		BlacklistedAt: now,
		ExpiresAt:     event.ExpiresAt,
	}

	if err := c.blacklist.Add(ctx, entry, entry.TTL(now)); err != nil {
		return fmt.Errorf("apply remote revocation: %w", err)
	}

	c.logger.Info("remote revocation applied",
		zap.String("jti", event.JTI),
		zap.String("reason", string(event.Reason)),
		zap.String("origin", event.Origin),
	)

	return nil
}
