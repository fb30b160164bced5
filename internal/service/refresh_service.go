// Package service implements the business logic around asynchronous cache
// refresh and quote history reads.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketgateway/internal/gateway"
	"marketgateway/internal/quote"
	"marketgateway/internal/repository"
)

// TaskTypeRefreshQuote is the Asynq task type for cache-warm refresh jobs.
const TaskTypeRefreshQuote = "quote:refresh"

// RefreshQuotePayload is the payload structure for refresh Asynq tasks.
type RefreshQuotePayload struct {
	RefreshID  string `json:"refresh_id"`
	AssetClass string `json:"asset_class"`
	Symbol     string `json:"symbol"`
}

// Sentinel errors surfaced to the API layer.
var (
	ErrNoSymbols       = errors.New("no symbols provided")
	ErrTooManySymbols  = errors.New("too many symbols")
	ErrInternalQueue   = errors.New("internal queue error")
	ErrHistoryDisabled = errors.New("quote history persistence is disabled")
	ErrNotFound        = errors.New("not found")
)

// QuoteGetter is the façade surface the refresh worker needs.
type QuoteGetter interface {
	GetQuote(ctx context.Context, symbol string, class quote.AssetClass, live bool) (*quote.Quote, gateway.Status, error)
}

// Enqueuer submits refresh tasks to the background queue.
type Enqueuer interface {
	EnqueueRefreshTask(ctx context.Context, payload RefreshQuotePayload) error
}

// RefreshService validates refresh requests, fans them out to the task queue,
// and serves history reads.
type RefreshService struct {
	gw       QuoteGetter
	enqueuer Enqueuer
	history  repository.HistoryRepository
	log      *zap.SugaredLogger
	maxBatch int
}

// NewRefreshService creates a new RefreshService. history may be nil when
// persistence is disabled.
func NewRefreshService(gw QuoteGetter, enqueuer Enqueuer, history repository.HistoryRepository, logger *zap.SugaredLogger, maxBatch int) *RefreshService {
	if maxBatch <= 0 {
		maxBatch = 50
	}
	return &RefreshService{
		gw:       gw,
		enqueuer: enqueuer,
		history:  history,
		log:      logger,
		maxBatch: maxBatch,
	}
}

// RequestRefresh enqueues one cache-warm task per valid symbol and returns
// the refresh correlation ID together with the number of accepted symbols.
func (s *RefreshService) RequestRefresh(ctx context.Context, symbols []string, class quote.AssetClass) (refreshID string, accepted int, err error) {
	if len(symbols) == 0 {
		return "", 0, ErrNoSymbols
	}
	if len(symbols) > s.maxBatch {
		return "", 0, ErrTooManySymbols
	}

	refreshID = uuid.New().String()
	for _, raw := range symbols {
		sym, err := quote.NormalizeSymbol(raw)
		if err != nil {
			s.log.Warnw("Skipping invalid symbol in refresh request", "symbol", raw, "refresh_id", refreshID)
			continue
		}
		payload := RefreshQuotePayload{
			RefreshID:  refreshID,
			AssetClass: string(class),
			Symbol:     sym,
		}
		if err := s.enqueuer.EnqueueRefreshTask(ctx, payload); err != nil {
			s.log.Errorw("Failed to enqueue refresh task", "refresh_id", refreshID, "symbol", sym, "error", err)
			return "", accepted, ErrInternalQueue
		}
		accepted++
	}
	if accepted == 0 {
		return "", 0, quote.ErrInvalidSymbol
	}

	s.log.Infow("Enqueued refresh tasks", "refresh_id", refreshID, "accepted", accepted)
	return refreshID, accepted, nil
}

// ProcessRefresh performs the cache-warming fetch for one symbol (called by
// the background worker). A live fetch through the gateway both validates the
// symbol and leaves the result in the cache for the next read.
func (s *RefreshService) ProcessRefresh(ctx context.Context, refreshID, classStr, symbol string) error {
	class, err := quote.ParseAssetClass(classStr)
	if err != nil {
		s.log.Errorw("Invalid asset class in refresh task", "refresh_id", refreshID, "class", classStr)
		return nil // malformed payload, retrying won't help
	}

	q, status, err := s.gw.GetQuote(ctx, symbol, class, true)
	if err != nil {
		s.log.Warnw("Refresh fetch failed", "refresh_id", refreshID, "symbol", symbol, "error", err)
		return err
	}

	s.log.Infow("Refreshed quote", "refresh_id", refreshID, "key", q.Key, "status", string(status), "source", q.Source)
	return nil
}

// GetHistory returns persisted quote observations for one symbol.
func (s *RefreshService) GetHistory(ctx context.Context, class quote.AssetClass, symbol string, limit int) ([]repository.HistoryEntry, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	sym, err := quote.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	entries, err := s.history.ListBySymbol(ctx, class, sym, limit)
	if err != nil {
		s.log.Errorw("DB error fetching quote history", "class", class, "symbol", sym, "error", err)
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}
