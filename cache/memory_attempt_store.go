package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryAttemptStore implements AttemptStore using ttlcache.
type MemoryAttemptStore struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, int64]
}

// NewMemoryAttemptStore creates a new in-memory attempt store with automatic
// cleanup. The per-entry TTL is supplied on each Incr call.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, int64](),
	)

	// Start the cleanup process
	go cache.Start()

	return &MemoryAttemptStore{cache: cache}
}

// Incr implements AttemptStore.Incr. The window is anchored at the first
// failed attempt; later failures do not extend it.
func (s *MemoryAttemptStore) Incr(_ context.Context, email string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	if item := s.cache.Get(email); item != nil {
		count = item.Value()
		window = time.Until(item.ExpiresAt())
	}
	count++
	s.cache.Set(email, count, window)
	return count, nil
}

// Count implements AttemptStore.Count.
func (s *MemoryAttemptStore) Count(_ context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(email)
	if item == nil {
		return 0, nil
	}
	return item.Value(), nil
}

// Reset implements AttemptStore.Reset.
func (s *MemoryAttemptStore) Reset(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Delete(email)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryAttemptStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ AttemptStore = (*MemoryAttemptStore)(nil)
