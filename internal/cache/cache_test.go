package cache

import (
	"context"
	"testing"
	"time"

	"marketgateway/internal/quote"
)

func testQuote(symbol string, price float64) *quote.Quote {
	return &quote.Quote{
		Key:        quote.Key(quote.ClassStock, symbol),
		Symbol:     symbol,
		AssetClass: quote.ClassStock,
		Price:      price,
		Source:     "fmp",
		FetchedAt:  time.Now().UTC(),
	}
}

func TestMemoryStore_FreshTiers(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(0, 0)
	s.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	q := testQuote("AAPL", 198.5)
	s.Set(ctx, q.Key, q)

	// Inside the fresh window.
	now = now.Add(30 * time.Second)
	got, ok := s.Get(ctx, q.Key, time.Minute)
	if !ok {
		t.Fatal("expected fresh hit at 30s with 1m window")
	}
	if got.Price != 198.5 {
		t.Fatalf("expected price 198.5, got %v", got.Price)
	}

	// Past the fresh window, inside the stale bound.
	now = now.Add(5 * time.Minute)
	if _, ok := s.Get(ctx, q.Key, time.Minute); ok {
		t.Fatal("expected fresh miss past the window")
	}
	if _, ok := s.GetStale(ctx, q.Key, time.Hour); !ok {
		t.Fatal("expected stale hit inside the stale bound")
	}

	// Past the stale bound.
	now = now.Add(time.Hour)
	if _, ok := s.GetStale(ctx, q.Key, time.Hour); ok {
		t.Fatal("expected stale miss past the bound")
	}
}

func TestMemoryStore_MissOnUnknownKey(t *testing.T) {
	s := NewMemoryStore(0, 0)
	if _, ok := s.Get(context.Background(), "stock:NOPE", time.Minute); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestMemoryStore_Supersede(t *testing.T) {
	s := NewMemoryStore(0, 0)
	ctx := context.Background()

	q1 := testQuote("AAPL", 190)
	s.Set(ctx, q1.Key, q1)
	q2 := testQuote("AAPL", 198.5)
	s.Set(ctx, q2.Key, q2)

	got, ok := s.Get(ctx, q1.Key, time.Minute)
	if !ok || got.Price != 198.5 {
		t.Fatalf("expected superseding write to win, got ok=%v price=%v", ok, got.Price)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestMemoryStore_HitReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0, 0)
	ctx := context.Background()

	q := testQuote("AAPL", 198.5)
	s.Set(ctx, q.Key, q)

	got, _ := s.Get(ctx, q.Key, time.Minute)
	got.Price = 0

	again, _ := s.Get(ctx, q.Key, time.Minute)
	if again.Price != 198.5 {
		t.Fatal("mutating a returned quote must not affect the stored entry")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore(0, 0)
	s.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	old := testQuote("OLD", 1)
	s.Set(ctx, old.Key, old)

	now = now.Add(2 * time.Hour)
	fresh := testQuote("NEW", 2)
	s.Set(ctx, fresh.Key, fresh)

	s.sweep(time.Hour)

	if s.Len() != 1 {
		t.Fatalf("expected sweep to drop the expired entry, have %d entries", s.Len())
	}
	if _, ok := s.GetStale(ctx, fresh.Key, time.Hour); !ok {
		t.Fatal("expected the recent entry to survive the sweep")
	}
}

func TestMemoryStore_CloseIdempotent(t *testing.T) {
	s := NewMemoryStore(time.Minute, time.Hour)
	s.Close()
	s.Close() // must not panic
}
