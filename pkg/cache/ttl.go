package cache

import (
	"sync"
	"time"
)

// Clock returns the current time
type Clock func() time.Time

// Entry is a cached value with the time it was stored
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// TTLStore is an in-memory keyed store whose entries expire after a fixed TTL.
// Concurrent writers to one key race; the last Set wins.
type TTLStore[V any] struct {
	entries map[string]Entry[V]
	ttl     time.Duration
	now     Clock
	mu      sync.RWMutex
}

// NewTTLStore creates a store. A nil clock means time.Now.
func NewTTLStore[V any](ttl time.Duration, clock Clock) *TTLStore[V] {
	if clock == nil {
		clock = time.Now
	}
	return &TTLStore[V]{
		entries: make(map[string]Entry[V]),
		ttl:     ttl,
		now:     clock,
	}
}

// Get returns the entry for key if it is younger than the TTL
func (s *TTLStore[V]) Get(key string) (Entry[V], bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return Entry[V]{}, false
	}
	if s.now().Sub(e.StoredAt) >= s.ttl {
		s.mu.Lock()
		if cur, still := s.entries[key]; still && cur.StoredAt.Equal(e.StoredAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return Entry[V]{}, false
	}
	return e, true
}

// Set stores value under key and returns the stored entry
func (s *TTLStore[V]) Set(key string, value V) Entry[V] {
	e := Entry[V]{Value: value, StoredAt: s.now()}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return e
}

// Delete removes key
func (s *TTLStore[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired or not
func (s *TTLStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TTL returns the configured lifetime of entries
func (s *TTLStore[V]) TTL() time.Duration {
	return s.ttl
}
