// Package gateway implements the market data aggregation façade: cache,
// request deduplication, per-provider circuit breaking, and ordered fallback
// across upstream adapters.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"marketgateway/internal/breaker"
	"marketgateway/internal/cache"
	"marketgateway/internal/fallback"
	"marketgateway/internal/provider"
	"marketgateway/internal/quote"
)

// Status reports which path produced a quote; it is surfaced to clients in
// the X-Cache response header.
type Status string

// Status values, in ladder order.
const (
	StatusHit          Status = "HIT"
	StatusMiss         Status = "MISS"
	StatusDeduplicated Status = "DEDUPLICATED"
	StatusStale        Status = "STALE"
	StatusFallback     Status = "FALLBACK"
)

// ErrNotFound is returned when every live provider, the stale cache, and the
// fallback table all came up empty. It is the only error the façade surfaces
// for a well-formed request.
var ErrNotFound = errors.New("quote not found")

// Sources reported for non-live paths.
const (
	sourceCache = "cache"
	sourceStale = "stale"
)

// HistoryRecorder persists successfully fetched quotes. The gateway treats
// recording as best-effort telemetry and tolerates a nil recorder.
type HistoryRecorder interface {
	Insert(ctx context.Context, q *quote.Quote) error
}

// Config holds gateway tuning parameters.
type Config struct {
	LiveTTL            time.Duration                      // fresh tier for live=true requests
	DefaultTTL         time.Duration                      // fresh tier when no class override exists
	ClassTTL           map[quote.AssetClass]time.Duration // per-class fresh tier
	StaleTTL           time.Duration                      // stale-but-usable bound
	ChainTimeout       time.Duration                      // caps one full chain run
	BreakerThreshold   int
	BreakerResetWindow time.Duration
	BatchLimit         int // max symbols per batch request
	BatchConcurrency   int // parallel fetches within one batch
}

func (c *Config) applyDefaults() {
	if c.LiveTTL <= 0 {
		c.LiveTTL = 30 * time.Second
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 2 * time.Minute
	}
	if c.StaleTTL <= 0 {
		c.StaleTTL = time.Hour
	}
	if c.ChainTimeout <= 0 {
		c.ChainTimeout = 20 * time.Second
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 50
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = 8
	}
}

// Gateway is the single entry point the read path calls. It owns the cache,
// the in-flight registry, one breaker per adapter, and the ordered adapter
// chain. Construct once at process start and inject into request handlers.
type Gateway struct {
	store    cache.Store
	flights  singleflight.Group
	adapters []provider.Adapter
	breakers map[string]*breaker.Breaker
	table    *fallback.Table
	history  HistoryRecorder
	log      *zap.SugaredLogger
	cfg      Config
}

// New creates a Gateway. Adapter order is chain order: for each asset class
// the chain is the subsequence of adapters whose Supports reports true.
func New(store cache.Store, adapters []provider.Adapter, table *fallback.Table, history HistoryRecorder, logger *zap.SugaredLogger, cfg Config) *Gateway {
	cfg.applyDefaults()
	breakers := make(map[string]*breaker.Breaker, len(adapters))
	for _, ad := range adapters {
		breakers[ad.Name()] = breaker.New(cfg.BreakerThreshold, cfg.BreakerResetWindow)
	}
	return &Gateway{
		store:    store,
		adapters: adapters,
		breakers: breakers,
		table:    table,
		history:  history,
		log:      logger,
		cfg:      cfg,
	}
}

// GetQuote resolves one symbol through the ladder: fresh cache, deduplicated
// provider chain, stale cache, curated fallback table, ErrNotFound.
func (g *Gateway) GetQuote(ctx context.Context, symbol string, class quote.AssetClass, live bool) (*quote.Quote, Status, error) {
	symbol, err := quote.NormalizeSymbol(symbol)
	if err != nil {
		return nil, "", err
	}
	key := quote.Key(class, symbol)

	if q, ok := g.store.Get(ctx, key, g.freshTTL(class, live)); ok {
		hit := *q
		hit.Source = sourceCache
		return &hit, StatusHit, nil
	}

	v, fetchErr, shared := g.flights.Do(key, func() (any, error) {
		// The fetch outlives caller cancellation on purpose: the network
		// cost is already being paid, so let the result land in the cache
		// for the next caller.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.ChainTimeout)
		defer cancel()
		return g.runChain(fetchCtx, class, symbol, key)
	})
	if fetchErr == nil {
		q := v.(*quote.Quote)
		if shared {
			return q, StatusDeduplicated, nil
		}
		return q, StatusMiss, nil
	}

	if q, ok := g.store.GetStale(ctx, key, g.cfg.StaleTTL); ok {
		stale := *q
		stale.Source = sourceStale
		g.log.Warnw("Serving stale quote", "key", key, "fetched_at", q.FetchedAt, "error", fetchErr)
		return &stale, StatusStale, nil
	}

	if g.table != nil {
		if q, ok := g.table.Lookup(class, symbol); ok {
			g.log.Warnw("Serving curated fallback price", "key", key, "error", fetchErr)
			return q, StatusFallback, nil
		}
	}

	return nil, "", fmt.Errorf("%w: %s", ErrNotFound, key)
}

// runChain iterates the ordered adapter list for class, skipping adapters
// with an open breaker. The first success is written through to the cache
// before the singleflight entry is released, so a caller arriving right
// after completion hits the cache instead of re-joining a finished flight.
func (g *Gateway) runChain(ctx context.Context, class quote.AssetClass, symbol, key string) (*quote.Quote, error) {
	var errs []error
	attempted := false

	for _, ad := range g.adapters {
		if !ad.Supports(class) {
			continue
		}
		br := g.breakers[ad.Name()]
		if !br.Allow() {
			errs = append(errs, fmt.Errorf("%s: circuit open", ad.Name()))
			continue
		}
		attempted = true

		q, err := ad.Fetch(ctx, class, symbol)
		if err == nil {
			br.RecordSuccess()
			sanitize(q)
			g.store.Set(ctx, key, q)
			g.record(ctx, q)
			return q, nil
		}

		errs = append(errs, err)
		if provider.IsPermanent(err) {
			// Symbol unknown to this provider; not a health signal.
			continue
		}
		br.RecordFailure()
		if fails, open := br.State(); open {
			g.log.Warnw("Circuit opened", "provider", ad.Name(), "consecutive_failures", fails, "error", err)
		} else {
			g.log.Warnw("Provider fetch failed", "provider", ad.Name(), "consecutive_failures", fails, "error", err)
		}
	}

	if !attempted && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no providers configured for class %s", class))
	}
	return nil, fmt.Errorf("all providers exhausted for %s: %w", key, errors.Join(errs...))
}

func (g *Gateway) record(ctx context.Context, q *quote.Quote) {
	if g.history == nil {
		return
	}
	if err := g.history.Insert(ctx, q); err != nil {
		g.log.Warnw("Failed to record quote history", "key", q.Key, "error", err)
	}
}

func (g *Gateway) freshTTL(class quote.AssetClass, live bool) time.Duration {
	if live {
		return g.cfg.LiveTTL
	}
	if ttl, ok := g.cfg.ClassTTL[class]; ok && ttl > 0 {
		return ttl
	}
	return g.cfg.DefaultTTL
}

// FreshTTL exposes the effective fresh tier for a class; the API layer uses
// it for the Cache-Control header.
func (g *Gateway) FreshTTL(class quote.AssetClass, live bool) time.Duration {
	return g.freshTTL(class, live)
}

// sanitize enforces the Quote contract: numeric fields are never NaN or Inf,
// and ChangePercent is derived when the provider supplied only an absolute
// change.
func sanitize(q *quote.Quote) {
	q.Price = finite(q.Price)
	q.Change = finite(q.Change)
	q.ChangePercent = finite(q.ChangePercent)
	if q.ChangePercent == 0 && q.Change != 0 {
		if prev := q.Price - q.Change; prev != 0 {
			q.ChangePercent = finite(q.Change / prev * 100)
		}
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
