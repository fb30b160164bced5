package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketgateway/internal/quote"
)

var _ Adapter = (*CoinGeckoAdapter)(nil)

// CoinGeckoAdapter fetches crypto quotes from the CoinGecko aggregator. It is
// a secondary crypto source: CoinGecko keys assets by internal id rather than
// ticker, so only symbols present in the id mapping are served.
type CoinGeckoAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCoinGeckoAdapter creates a new CoinGeckoAdapter.
func NewCoinGeckoAdapter(baseURL, apiKey string, timeoutSec int) *CoinGeckoAdapter {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGeckoAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Name returns the adapter identifier used in Quote.Source.
func (a *CoinGeckoAdapter) Name() string { return "coingecko" }

// Supports reports the asset classes served by this adapter.
func (a *CoinGeckoAdapter) Supports(class quote.AssetClass) bool {
	return class == quote.ClassCrypto
}

// coinIDs maps canonical crypto tickers to CoinGecko internal ids.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"LTC":   "litecoin",
	"LINK":  "chainlink",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"BNB":   "binancecoin",
	"UNI":   "uniswap",
	"ATOM":  "cosmos",
	"XLM":   "stellar",
	"USDT":  "tether",
	"USDC":  "usd-coin",
}

type geckoEntry struct {
	USD          float64  `json:"usd"`
	USD24hChange float64  `json:"usd_24h_change"`
	USDMarketCap *float64 `json:"usd_market_cap"`
}

// Fetch retrieves a quote from CoinGecko's simple/price endpoint.
func (a *CoinGeckoAdapter) Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
	id, ok := coinIDs[symbol]
	if !ok {
		// Not in the mapping: a data outcome, not a provider failure, and no
		// network call is spent on it.
		return nil, Permanent(a.Name(), symbol, fmt.Errorf("no coin id mapping"))
	}

	reqURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_market_cap=true",
		a.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("request creation failed: %w", err))
	}
	if a.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", a.apiKey)
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

	var result map[string]geckoEntry
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	entry, ok := result[id]
	if !ok || entry.USD == 0 {
		return nil, Permanent(a.Name(), symbol, fmt.Errorf("no price for id %s", id))
	}

	// CoinGecko reports the 24h change as a percentage only; derive the
	// absolute change from the current price.
	pct := entry.USD24hChange
	change := 0.0
	if pct != 0 && pct != -100 {
		change = entry.USD * pct / (100 + pct)
	}

	return &quote.Quote{
		Key:           quote.Key(class, symbol),
		Symbol:        symbol,
		AssetClass:    class,
		Price:         entry.USD,
		Change:        change,
		ChangePercent: pct,
		MarketCap:     entry.USDMarketCap,
		Source:        a.Name(),
		FetchedAt:     time.Now().UTC(),
	}, nil
}
