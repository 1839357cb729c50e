package port

import (
	"context"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
)

// RevocationEventPublisher fans token revocations out to sibling services. Publishing
// is best-effort: the blacklist entry is already durable in the cache tier before an
// event is emitted.
type RevocationEventPublisher interface {
	PublishTokenRevoked(ctx context.Context, event domain.TokenRevokedEvent) error
}
