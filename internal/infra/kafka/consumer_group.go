package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/infra/config"
)

// RevocationConsumerGroup runs a RevocationConsumer against the token.revoked
// topic inside a Sarama consumer group.
type RevocationConsumerGroup struct {
	group   sarama.ConsumerGroup
	handler *RevocationConsumer
	topic   string
	logger  *zap.Logger
}

// NewRevocationConsumerGroup joins the configured consumer group.
func NewRevocationConsumerGroup(cfg config.KafkaSettings, handler *RevocationConsumer, logger *zap.Logger) (*RevocationConsumerGroup, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_5_0_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}

	topic := tokenRevokedEventType
	if cfg.TopicPrefix != "" {
		topic = fmt.Sprintf("%s.%s", cfg.TopicPrefix, tokenRevokedEventType)
	}

	return &RevocationConsumerGroup{
		group:   group,
		handler: handler,
		topic:   topic,
		logger:  logger,
	}, nil
}

// Run consumes until the context is cancelled. Consume returns on every group
// rebalance, so it loops.
func (g *RevocationConsumerGroup) Run(ctx context.Context) error {
	go func() {
		for err := range g.group.Errors() {
			g.logger.Error("kafka consumer group error", zap.Error(err))
		}
	}()

	for {
		if err := g.group.Consume(ctx, []string{g.topic}, g); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return fmt.Errorf("consume revocation topic: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Close leaves the consumer group.
func (g *RevocationConsumerGroup) Close() error {
	if err := g.group.Close(); err != nil {
		return fmt.Errorf("close kafka consumer group: %w", err)
	}
	return nil
}

// Setup implements sarama.ConsumerGroupHandler.
func (g *RevocationConsumerGroup) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup implements sarama.ConsumerGroupHandler.
func (g *RevocationConsumerGroup) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from one partition claim. Malformed messages
// are logged and committed so they cannot wedge the partition.
func (g *RevocationConsumerGroup) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := g.handler.HandleMessage(session.Context(), msg); err != nil {
				g.logger.Warn("revocation event dropped",
					zap.Error(err),
					zap.Int64("offset", msg.Offset),
					zap.Int32("partition", msg.Partition),
				)
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

var _ sarama.ConsumerGroupHandler = (*RevocationConsumerGroup)(nil)
