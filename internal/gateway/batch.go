package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"marketgateway/internal/quote"
)

// ErrTooManySymbols is returned when a batch request exceeds the configured
// symbol cap.
var ErrTooManySymbols = errors.New("too many symbols in batch request")

// ErrEmptyBatch is returned when a batch request carries no symbols.
var ErrEmptyBatch = errors.New("batch request has no symbols")

// BatchResult aggregates the outcome of a multi-symbol lookup. Quotes holds
// every resolved symbol; Errors holds the symbols that resolved to nothing.
type BatchResult struct {
	Quotes      map[string]*quote.Quote `json:"quotes"`
	Errors      map[string]string       `json:"errors"`
	Total       int                     `json:"total"`
	Successful  int                     `json:"successful"`
	Cached      int                     `json:"cached"`
	Failed      int                     `json:"failed"`
	FetchTimeMs int64                   `json:"fetch_time_ms"`
}

// GetQuotes resolves up to BatchLimit symbols of one asset class in parallel,
// with bounded concurrency. Per-symbol failures never fail the batch.
func (g *Gateway) GetQuotes(ctx context.Context, symbols []string, class quote.AssetClass, live bool) (*BatchResult, error) {
	if len(symbols) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(symbols) > g.cfg.BatchLimit {
		return nil, ErrTooManySymbols
	}

	start := time.Now()
	res := &BatchResult{
		Quotes: make(map[string]*quote.Quote, len(symbols)),
		Errors: make(map[string]string),
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.BatchConcurrency)

	seen := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		sym, err := quote.NormalizeSymbol(raw)
		if err != nil {
			mu.Lock()
			res.Errors[raw] = quote.ErrInvalidSymbol.Error()
			res.Failed++
			mu.Unlock()
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}

		eg.Go(func() error {
			q, status, err := g.GetQuote(egCtx, sym, class, live)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors[sym] = errMessage(err)
				res.Failed++
				return nil
			}
			res.Quotes[sym] = q
			res.Successful++
			if status == StatusHit {
				res.Cached++
			}
			return nil
		})
	}
	_ = eg.Wait()

	res.Total = res.Successful + res.Failed
	res.FetchTimeMs = time.Since(start).Milliseconds()
	return res, nil
}

func errMessage(err error) string {
	if errors.Is(err, ErrNotFound) {
		return "not found"
	}
	return err.Error()
}
