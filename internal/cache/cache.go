// Package cache implements time-bounded quote storage with fresh and
// stale-but-usable read tiers.
package cache

import (
	"context"
	"sync"
	"time"

	"marketgateway/internal/quote"
)

// Store is the quote cache contract. Get returns a hit only while the entry
// is younger than maxAge; GetStale accepts entries up to the much larger
// maxStale bound and is meant for use after all live fetches have failed.
type Store interface {
	Get(ctx context.Context, key string, maxAge time.Duration) (*quote.Quote, bool)
	GetStale(ctx context.Context, key string, maxStale time.Duration) (*quote.Quote, bool)
	Set(ctx context.Context, key string, q *quote.Quote)
}

// entry pairs a quote with its storage time. Entries are replaced, never
// mutated.
type entry struct {
	quote    quote.Quote
	storedAt time.Time
}

// MemoryStore is the default single-process Store backed by a map.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string]entry
	nowFunc func() time.Time

	stopJanitor chan struct{}
	janitorOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store. If sweepInterval is
// positive, a janitor goroutine periodically drops entries older than
// maxStale to bound memory; sweeping is an optimization, not a behavioral
// requirement.
func NewMemoryStore(sweepInterval, maxStale time.Duration) *MemoryStore {
	s := &MemoryStore{
		items:       make(map[string]entry),
		nowFunc:     time.Now,
		stopJanitor: make(chan struct{}),
	}
	if sweepInterval > 0 && maxStale > 0 {
		go s.janitor(sweepInterval, maxStale)
	}
	return s
}

// Get returns the cached quote for key if it is younger than maxAge.
func (s *MemoryStore) Get(_ context.Context, key string, maxAge time.Duration) (*quote.Quote, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || s.nowFunc().Sub(e.storedAt) >= maxAge {
		return nil, false
	}
	q := e.quote
	return &q, true
}

// GetStale returns the cached quote for key if it is younger than maxStale,
// regardless of the fresh tier.
func (s *MemoryStore) GetStale(_ context.Context, key string, maxStale time.Duration) (*quote.Quote, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok || s.nowFunc().Sub(e.storedAt) >= maxStale {
		return nil, false
	}
	q := e.quote
	return &q, true
}

// Set stores a quote under key, superseding any previous entry.
func (s *MemoryStore) Set(_ context.Context, key string, q *quote.Quote) {
	if q == nil {
		return
	}
	s.mu.Lock()
	s.items[key] = entry{quote: *q, storedAt: s.nowFunc()}
	s.mu.Unlock()
}

// Close stops the janitor goroutine if one is running.
func (s *MemoryStore) Close() {
	s.janitorOnce.Do(func() { close(s.stopJanitor) })
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) janitor(interval, maxStale time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			s.sweep(maxStale)
		}
	}
}

func (s *MemoryStore) sweep(maxStale time.Duration) {
	now := s.nowFunc()
	s.mu.Lock()
	for k, e := range s.items {
		if now.Sub(e.storedAt) >= maxStale {
			delete(s.items, k)
		}
	}
	s.mu.Unlock()
}
