package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"marketgateway/internal/gateway"
	"marketgateway/internal/quote"
	"marketgateway/internal/service"
)

// HeaderCache is the response header reporting which gateway path produced
// the answer (HIT, MISS, DEDUPLICATED, STALE, or FALLBACK).
const HeaderCache = "X-Cache"

// BatchRequest is the request body for the batch quote endpoint.
type BatchRequest struct {
	Symbols []string `json:"symbols" example:"BTC,ETH,SOL"`
	Class   string   `json:"class" example:"crypto"`
	Live    bool     `json:"live"`
}

// RefreshRequest is the request body for the async refresh endpoint.
type RefreshRequest struct {
	Symbols []string `json:"symbols" example:"AAPL,MSFT"`
	Class   string   `json:"class" example:"stock"`
}

// RefreshResponse acknowledges an accepted refresh request.
type RefreshResponse struct {
	RefreshID string `json:"refresh_id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Accepted  int    `json:"accepted" example:"2"`
}

// HistoryEntryResponse is one persisted quote observation.
type HistoryEntryResponse struct {
	Price         float64  `json:"price" example:"198.5"`
	Change        float64  `json:"change" example:"1.25"`
	ChangePercent float64  `json:"change_percent" example:"0.63"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	Source        string   `json:"source" example:"fmp"`
	FetchedAt     string   `json:"fetched_at" example:"2025-12-01T10:15:30Z"`
}

// HistoryResponse is the response for the history endpoint.
type HistoryResponse struct {
	Symbol  string                 `json:"symbol" example:"AAPL"`
	Class   string                 `json:"class" example:"stock"`
	Entries []HistoryEntryResponse `json:"entries"`
}

// HandleGetQuote godoc
// @Summary Get a quote for one symbol
// @Description Resolves a symbol through the gateway ladder: fresh cache, deduplicated provider chain, stale cache, curated fallback. The X-Cache header reports which path answered.
// @Tags quotes
// @Produce json
// @Param symbol query string true "Ticker symbol" example(AAPL)
// @Param class query string false "Asset class" Enums(stock, crypto, forex, index, commodity) default(stock)
// @Param live query boolean false "Tighten the freshness window for live polling"
// @Success 200 {object} quote.Quote "Quote found"
// @Header 200 {string} X-Cache "HIT|MISS|DEDUPLICATED|STALE|FALLBACK"
// @Failure 400 {object} ErrorResponse "Invalid symbol or asset class"
// @Failure 404 {object} ErrorResponse "Symbol not found on any provider"
// @Router /v1/quote [get]
func HandleGetQuote(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "symbol query param is required"})
			return
		}
		class, err := quote.ParseAssetClass(r.URL.Query().Get("class"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		live, _ := strconv.ParseBool(r.URL.Query().Get("live"))

		q, status, err := gw.GetQuote(r.Context(), symbol, class, live)
		if err != nil {
			switch {
			case errors.Is(err, quote.ErrInvalidSymbol):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			case errors.Is(err, gateway.ErrNotFound):
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "No quote available for " + symbol})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}

		w.Header().Set(HeaderCache, string(status))
		w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(gw.FreshTTL(class, live).Seconds())))
		writeJSON(w, http.StatusOK, q)
	}
}

// HandleBatchQuotes godoc
// @Summary Get quotes for multiple symbols
// @Description Resolves up to 50 symbols of one asset class in parallel. Per-symbol failures are reported in the errors map; the batch itself succeeds.
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Symbols and asset class"
// @Success 200 {object} gateway.BatchResult "Batch outcome"
// @Failure 400 {object} ErrorResponse "Empty batch, oversized batch, or invalid class"
// @Router /v1/quotes/batch [post]
func HandleBatchQuotes(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		class, err := quote.ParseAssetClass(req.Class)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		res, err := gw.GetQuotes(r.Context(), req.Symbols, class, req.Live)
		if err != nil {
			switch {
			case errors.Is(err, gateway.ErrEmptyBatch), errors.Is(err, gateway.ErrTooManySymbols):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// HandleRequestRefresh godoc
// @Summary Request asynchronous cache refresh
// @Description Enqueues background fetches that warm the cache for the given symbols. Returns immediately with a refresh_id; does not block on upstream providers.
// @Tags quotes
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Symbols and asset class"
// @Success 202 {object} RefreshResponse "Refresh accepted"
// @Failure 400 {object} ErrorResponse "No valid symbols"
// @Failure 500 {object} ErrorResponse "Queue error"
// @Router /v1/quotes/refresh [post]
func HandleRequestRefresh(svc *service.RefreshService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON"})
			return
		}
		class, err := quote.ParseAssetClass(req.Class)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}

		refreshID, accepted, err := svc.RequestRefresh(r.Context(), req.Symbols, class)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoSymbols),
				errors.Is(err, service.ErrTooManySymbols),
				errors.Is(err, quote.ErrInvalidSymbol):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}
		writeJSON(w, http.StatusAccepted, RefreshResponse{RefreshID: refreshID, Accepted: accepted})
	}
}

// HandleGetHistory godoc
// @Summary Get persisted quote history for a symbol
// @Description Returns recent successfully fetched quotes recorded by the gateway, newest first.
// @Tags quotes
// @Produce json
// @Param symbol path string true "Ticker symbol" example(AAPL)
// @Param class query string false "Asset class" Enums(stock, crypto, forex, index, commodity) default(stock)
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {object} HistoryResponse "History found"
// @Failure 400 {object} ErrorResponse "Invalid symbol or asset class"
// @Failure 404 {object} ErrorResponse "No history for the symbol"
// @Failure 503 {object} ErrorResponse "History persistence disabled"
// @Router /v1/quotes/{symbol}/history [get]
func HandleGetHistory(svc *service.RefreshService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		class, err := quote.ParseAssetClass(r.URL.Query().Get("class"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		entries, err := svc.GetHistory(r.Context(), class, symbol, limit)
		if err != nil {
			switch {
			case errors.Is(err, quote.ErrInvalidSymbol):
				writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			case errors.Is(err, service.ErrNotFound):
				writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "No history for " + symbol})
			case errors.Is(err, service.ErrHistoryDisabled):
				writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
			default:
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal error"})
			}
			return
		}

		resp := HistoryResponse{Symbol: entries[0].Symbol, Class: entries[0].AssetClass}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, HistoryEntryResponse{
				Price:         e.Price,
				Change:        e.Change,
				ChangePercent: e.ChangePercent,
				High:          e.High,
				Low:           e.Low,
				Volume:        e.Volume,
				MarketCap:     e.MarketCap,
				Source:        e.Source,
				FetchedAt:     e.FetchedAt.Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
