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

var _ Adapter = (*CoinbaseAdapter)(nil)

// CoinbaseAdapter fetches crypto spot quotes from the Coinbase Exchange
// product stats endpoint.
type CoinbaseAdapter struct {
	baseURL string
	client  *http.Client
}

// NewCoinbaseAdapter creates a new CoinbaseAdapter.
func NewCoinbaseAdapter(baseURL string, timeoutSec int) *CoinbaseAdapter {
	if baseURL == "" {
		baseURL = "https://api.exchange.coinbase.com"
	}
	return &CoinbaseAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Name returns the adapter identifier used in Quote.Source.
func (a *CoinbaseAdapter) Name() string { return "coinbase" }

// Supports reports the asset classes served by this adapter.
func (a *CoinbaseAdapter) Supports(class quote.AssetClass) bool {
	return class == quote.ClassCrypto
}

// productID translates a canonical crypto symbol into Coinbase's product
// naming, e.g. BTC -> BTC-USD.
func productID(symbol string) string {
	return symbol + "-USD"
}

// Coinbase product stats response; all prices arrive as strings.
type coinbaseStats struct {
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Volume string `json:"volume"`
	Last   string `json:"last"`
}

// Fetch retrieves 24h product stats from Coinbase and derives change fields
// from the session open.
func (a *CoinbaseAdapter) Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
	reqURL := fmt.Sprintf("%s/products/%s/stats", a.baseURL, productID(symbol))

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
		return nil, classifyStatus(a.Name(), symbol, resp.StatusCode, string(body))
	}

	var stats coinbaseStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	last, err := strconv.ParseFloat(stats.Last, 64)
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("bad last price %q: %w", stats.Last, err))
	}

	q := &quote.Quote{
		Key:        quote.Key(class, symbol),
		Symbol:     symbol,
		AssetClass: class,
		Price:      last,
		Source:     a.Name(),
		FetchedAt:  time.Now().UTC(),
	}
	if open, err := strconv.ParseFloat(stats.Open, 64); err == nil && open > 0 {
		q.Change = last - open
		q.ChangePercent = (last - open) / open * 100
	}
	if high, err := strconv.ParseFloat(stats.High, 64); err == nil {
		q.High = &high
	}
	if low, err := strconv.ParseFloat(stats.Low, 64); err == nil {
		q.Low = &low
	}
	if vol, err := strconv.ParseFloat(stats.Volume, 64); err == nil {
		q.Volume = &vol
	}
	return q, nil
}
