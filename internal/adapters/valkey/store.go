package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Store implements both ports.KVStore (durable session/chat state) and
// ports.CacheService (expiring cache entries) over Valkey
// (Redis-compatible).
type Store struct {
	client valkey.Client
}

// New creates a new Valkey client.
func New(addr string) (*Store, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Store{client: client}, nil
}

// Get retrieves a value by key. Missing keys return an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	if cmd.Error() != nil {
		return nil, cmd.Error()
	}
	b, err := cmd.AsBytes()
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores a value without expiry. Session and chat state lives until
// explicitly removed.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(value)).Build())
	return cmd.Error()
}

// SetTTL stores a value with a TTL in seconds.
func (s *Store) SetTTL(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(key).Value(string(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Remove deletes a key.
func (s *Store) Remove(ctx context.Context, key string) error {
	cmd := s.client.Do(ctx, s.client.B().Del().Key(key).Build())
	return cmd.Error()
}

// Close releases the client.
func (s *Store) Close() {
	s.client.Close()
}

// AsCache adapts the store to ports.CacheService.
func (s *Store) AsCache() *CacheView {
	return &CacheView{store: s}
}

// CacheView exposes the TTL-based cache interface on top of Store.
type CacheView struct {
	store *Store
}

func (c *CacheView) Get(ctx context.Context, key string) ([]byte, error) {
	return c.store.Get(ctx, key)
}

func (c *CacheView) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return c.store.SetTTL(ctx, key, value, ttlSeconds)
}

func (c *CacheView) Delete(ctx context.Context, key string) error {
	return c.store.Remove(ctx, key)
}
