package api

import (
	"context"

	"go.uber.org/zap"

	"marketgateway/internal/cache"
	"marketgateway/internal/fallback"
	"marketgateway/internal/gateway"
	"marketgateway/internal/provider"
	"marketgateway/internal/quote"
	"marketgateway/internal/repository"
	"marketgateway/internal/service"
)

// stubAdapter lets each test script the upstream behavior.
type stubAdapter struct {
	name      string
	classes   []quote.AssetClass
	fetchFunc func(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error)
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Supports(class quote.AssetClass) bool {
	for _, c := range s.classes {
		if c == class {
			return true
		}
	}
	return false
}

func (s *stubAdapter) Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
	return s.fetchFunc(ctx, class, symbol)
}

type stubEnqueuer struct {
	enqueueFunc func(ctx context.Context, payload service.RefreshQuotePayload) error
}

func (s *stubEnqueuer) EnqueueRefreshTask(ctx context.Context, payload service.RefreshQuotePayload) error {
	if s.enqueueFunc == nil {
		return nil
	}
	return s.enqueueFunc(ctx, payload)
}

type stubHistory struct {
	listFunc func(ctx context.Context, class quote.AssetClass, symbol string, limit int) ([]repository.HistoryEntry, error)
}

func (s *stubHistory) Insert(ctx context.Context, q *quote.Quote) error { return nil }

func (s *stubHistory) ListBySymbol(ctx context.Context, class quote.AssetClass, symbol string, limit int) ([]repository.HistoryEntry, error) {
	return s.listFunc(ctx, class, symbol, limit)
}

func newTestGateway(adapters ...provider.Adapter) *gateway.Gateway {
	return gateway.New(cache.NewMemoryStore(0, 0), adapters, fallback.NewTable(nil), nil,
		zap.NewNop().Sugar(), gateway.Config{})
}

func newTestRefreshService(enq service.Enqueuer, history repository.HistoryRepository) *service.RefreshService {
	return service.NewRefreshService(nil, enq, history, zap.NewNop().Sugar(), 50)
}
