package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
)

const (
	schemaVersion         = "1.0"
	tokenRevokedEventType = "token.revoked"
)

// RevocationPublisher fans blacklist entries out to sibling services over Kafka.
type RevocationPublisher struct {
	producer *Producer
	origin   string
	logger   *zap.Logger
}

// NewRevocationPublisher constructs a Kafka-backed revocation publisher. The
// origin names this instance so consumers can discard their own echoes.
func NewRevocationPublisher(producer *Producer, origin string, logger *zap.Logger) *RevocationPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationPublisher{producer: producer, origin: origin, logger: logger}
}

type eventEnvelope struct {
	EventID   string                   `json:"event_id"`
	EventType string                   `json:"event_type"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Payload   domain.TokenRevokedEvent `json:"payload"`
}

// PublishTokenRevoked emits a token.revoked event keyed by JTI so all events
// for the same token land on one partition.
func (p *RevocationPublisher) PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error {
	if event.Origin == "" {
		event.Origin = p.origin
	}

	ts := event.RevokedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: tokenRevokedEventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   event,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal revocation envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(tokenRevokedEventType),
		Key:   sarama.StringEncoder(event.JTI),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ port.RevocationEventPublisher = (*RevocationPublisher)(nil)
