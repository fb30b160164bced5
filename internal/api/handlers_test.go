package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"marketgateway/internal/gateway"
	"marketgateway/internal/provider"
	"marketgateway/internal/quote"
	"marketgateway/internal/repository"
	"marketgateway/internal/service"
)

func workingAdapter() *stubAdapter {
	return &stubAdapter{
		name:    "fmp",
		classes: []quote.AssetClass{quote.ClassStock},
		fetchFunc: func(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
			return &quote.Quote{
				Key:        quote.Key(class, symbol),
				Symbol:     symbol,
				AssetClass: class,
				Price:      198.5,
				Source:     "fmp",
				FetchedAt:  time.Now().UTC(),
			}, nil
		},
	}
}

func TestHandleGetQuote(t *testing.T) {
	t.Run("miss then hit with cache headers", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		handler := HandleGetQuote(gw)

		req := httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=AAPL", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if got := w.Header().Get(HeaderCache); got != "MISS" {
			t.Errorf("Expected X-Cache MISS, got %s", got)
		}
		if cc := w.Header().Get("Cache-Control"); cc != "max-age=120" {
			t.Errorf("Expected Cache-Control max-age=120, got %s", cc)
		}

		var q quote.Quote
		if err := json.NewDecoder(w.Body).Decode(&q); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if q.Price != 198.5 || q.Symbol != "AAPL" {
			t.Errorf("Unexpected quote %+v", q)
		}

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=AAPL", nil))
		if got := w.Header().Get(HeaderCache); got != "HIT" {
			t.Errorf("Expected X-Cache HIT on second read, got %s", got)
		}
	})

	t.Run("live uses tighter cache-control", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		req := httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=AAPL&live=true", nil)
		w := httptest.NewRecorder()
		HandleGetQuote(gw).ServeHTTP(w, req)

		if cc := w.Header().Get("Cache-Control"); cc != "max-age=30" {
			t.Errorf("Expected Cache-Control max-age=30 for live, got %s", cc)
		}
	})

	t.Run("missing symbol returns 400", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		w := httptest.NewRecorder()
		HandleGetQuote(gw).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/quote", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("invalid class returns 400", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		w := httptest.NewRecorder()
		HandleGetQuote(gw).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=AAPL&class=bond", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("invalid symbol returns 400", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		w := httptest.NewRecorder()
		HandleGetQuote(gw).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=bad%20sym", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("exhausted ladder returns 404", func(t *testing.T) {
		dead := &stubAdapter{
			name:    "fmp",
			classes: []quote.AssetClass{quote.ClassStock},
			fetchFunc: func(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
				return nil, provider.Permanent("fmp", symbol, errors.New("empty quote array"))
			},
		}
		gw := newTestGateway(dead)
		w := httptest.NewRecorder()
		HandleGetQuote(gw).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/quote?symbol=OBSCURE", nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", w.Code)
		}
		var resp ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Error != "No quote available for OBSCURE" {
			t.Errorf("Unexpected error message %q", resp.Error)
		}
	})
}

func TestHandleBatchQuotes(t *testing.T) {
	t.Run("mixed outcome returns 200", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		body := bytes.NewBufferString(`{"symbols":["AAPL","bad sym"],"class":"stock"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/quotes/batch", body)
		w := httptest.NewRecorder()
		HandleBatchQuotes(gw).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var res gateway.BatchResult
		if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if res.Successful != 1 || res.Failed != 1 {
			t.Errorf("Expected 1 success and 1 failure, got %+v", res)
		}
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		req := httptest.NewRequest(http.MethodPost, "/v1/quotes/batch", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		HandleBatchQuotes(gw).ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("empty batch returns 400", func(t *testing.T) {
		gw := newTestGateway(workingAdapter())
		req := httptest.NewRequest(http.MethodPost, "/v1/quotes/batch", bytes.NewBufferString(`{"symbols":[]}`))
		w := httptest.NewRecorder()
		HandleBatchQuotes(gw).ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestHandleRequestRefresh(t *testing.T) {
	t.Run("accepted returns 202", func(t *testing.T) {
		svc := newTestRefreshService(&stubEnqueuer{}, nil)
		body := bytes.NewBufferString(`{"symbols":["AAPL","MSFT"],"class":"stock"}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/quotes/refresh", body)
		w := httptest.NewRecorder()
		HandleRequestRefresh(svc).ServeHTTP(w, req)

		if w.Code != http.StatusAccepted {
			t.Fatalf("Expected status 202, got %d", w.Code)
		}
		var resp RefreshResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Accepted != 2 || resp.RefreshID == "" {
			t.Errorf("Unexpected response %+v", resp)
		}
	})

	t.Run("no symbols returns 400", func(t *testing.T) {
		svc := newTestRefreshService(&stubEnqueuer{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/quotes/refresh", bytes.NewBufferString(`{"symbols":[]}`))
		w := httptest.NewRecorder()
		HandleRequestRefresh(svc).ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("queue failure returns 500", func(t *testing.T) {
		svc := newTestRefreshService(&stubEnqueuer{
			enqueueFunc: func(ctx context.Context, payload service.RefreshQuotePayload) error {
				return errors.New("redis down")
			},
		}, nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/quotes/refresh", bytes.NewBufferString(`{"symbols":["AAPL"]}`))
		w := httptest.NewRecorder()
		HandleRequestRefresh(svc).ServeHTTP(w, req)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

func historyRequest(symbol string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/quotes/"+symbol+"/history", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("symbol", symbol)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleGetHistory(t *testing.T) {
	t.Run("returns entries newest first", func(t *testing.T) {
		fetchedAt := time.Date(2025, 12, 1, 10, 15, 30, 0, time.UTC)
		svc := newTestRefreshService(nil, &stubHistory{
			listFunc: func(ctx context.Context, class quote.AssetClass, symbol string, limit int) ([]repository.HistoryEntry, error) {
				return []repository.HistoryEntry{{
					AssetClass: "stock", Symbol: "AAPL", Price: 198.5,
					Source: "fmp", FetchedAt: fetchedAt,
				}}, nil
			},
		})

		w := httptest.NewRecorder()
		HandleGetHistory(svc).ServeHTTP(w, historyRequest("AAPL"))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var resp HistoryResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Symbol != "AAPL" || len(resp.Entries) != 1 {
			t.Fatalf("Unexpected response %+v", resp)
		}
		if resp.Entries[0].FetchedAt != "2025-12-01T10:15:30Z" {
			t.Errorf("Unexpected fetched_at %s", resp.Entries[0].FetchedAt)
		}
	})

	t.Run("persistence disabled returns 503", func(t *testing.T) {
		svc := newTestRefreshService(nil, nil)
		w := httptest.NewRecorder()
		HandleGetHistory(svc).ServeHTTP(w, historyRequest("AAPL"))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})

	t.Run("no entries returns 404", func(t *testing.T) {
		svc := newTestRefreshService(nil, &stubHistory{
			listFunc: func(ctx context.Context, class quote.AssetClass, symbol string, limit int) ([]repository.HistoryEntry, error) {
				return nil, nil
			},
		})
		w := httptest.NewRecorder()
		HandleGetHistory(svc).ServeHTTP(w, historyRequest("AAPL"))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestHandleHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	HandleHealthz().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestHandleReadyz_NoDependencies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	HandleReadyz(nil, nil, nil).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
