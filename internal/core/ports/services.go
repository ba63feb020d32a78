package ports

import (
	"context"

	"github.com/oceanpulse/argochat/internal/core/domain"
)

// KVStore is durable key/value persistence for session and chat state.
// Get returns an error for missing keys; callers treat any Get failure
// as "absent" and fall back to defaults.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// CacheService provides read-through caching with expiry.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Completer produces a single non-streamed text completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFloatPosition(ctx context.Context, f *domain.Float) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber consumes domain events from a message broker.
type EventSubscriber interface {
	SubscribeFloatPositions(ctx context.Context, handler func(ctx context.Context, f *domain.Float) error) error
}
