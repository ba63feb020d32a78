package memstore

import (
	"context"
	"fmt"
	"sync"
)

// Store is an in-memory ports.KVStore. It backs guest-only deployments
// and tests, and doubles as a TTL-less ports.CacheService.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get retrieves a value by key. Missing keys return an error, matching
// the Valkey adapter.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("key %q not found", key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set stores a value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

// SetTTL stores a value, ignoring the TTL. Entries live until removed.
func (s *Store) SetTTL(ctx context.Context, key string, value []byte, _ int) error {
	return s.Set(ctx, key, value)
}

// Remove deletes a key. Removing a missing key is not an error.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// AsCache adapts the store to ports.CacheService.
func (s *Store) AsCache() *CacheView {
	return &CacheView{store: s}
}

// CacheView exposes the cache interface on top of Store.
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
