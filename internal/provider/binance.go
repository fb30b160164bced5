package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"marketgateway/internal/quote"
)

var _ Adapter = (*BinanceAdapter)(nil)

// BinanceAdapter fetches crypto spot quotes from the Binance 24hr ticker
// endpoint.
type BinanceAdapter struct {
	baseURL string
	client  *http.Client
}

// NewBinanceAdapter creates a new BinanceAdapter.
func NewBinanceAdapter(baseURL string, timeoutSec int) *BinanceAdapter {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Name returns the adapter identifier used in Quote.Source.
func (a *BinanceAdapter) Name() string { return "binance" }

// Supports reports the asset classes served by this adapter.
func (a *BinanceAdapter) Supports(class quote.AssetClass) bool {
	return class == quote.ClassCrypto
}

// tradingPair translates a canonical crypto symbol into Binance's USDT pair
// naming, e.g. BTC -> BTCUSDT.
func tradingPair(symbol string) string {
	return symbol + "USDT"
}

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	QuoteVolume        string `json:"quoteVolume"`
}

// Fetch retrieves a 24hr ticker from Binance.
func (a *BinanceAdapter) Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
	reqURL := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", a.baseURL, tradingPair(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("request creation failed: %w", err))
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		// Binance rejects unknown trading pairs with a 400, not a 404.
		if resp.StatusCode == http.StatusBadRequest {
			return nil, Permanent(a.Name(), symbol, fmt.Errorf("unknown trading pair %s", tradingPair(symbol)))
		}
		return nil, classifyStatus(a.Name(), symbol, resp.StatusCode, string(body))
	}

	var t binanceTicker
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	price, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("bad lastPrice %q: %w", t.LastPrice, err))
	}
	change, _ := strconv.ParseFloat(t.PriceChange, 64)
	changePct, _ := strconv.ParseFloat(t.PriceChangePercent, 64)

	q := &quote.Quote{
		Key:           quote.Key(class, symbol),
		Symbol:        symbol,
		AssetClass:    class,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Source:        a.Name(),
		FetchedAt:     time.Now().UTC(),
	}
	if high, err := strconv.ParseFloat(t.HighPrice, 64); err == nil {
		q.High = &high
	}
	if low, err := strconv.ParseFloat(t.LowPrice, 64); err == nil {
		q.Low = &low
	}
	if vol, err := strconv.ParseFloat(t.QuoteVolume, 64); err == nil {
		q.Volume = &vol
	}
	return q, nil
}
