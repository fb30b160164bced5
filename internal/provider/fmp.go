package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketgateway/internal/quote"
)

var _ Adapter = (*FMPAdapter)(nil)

// FMPAdapter fetches quotes from the Financial Modeling Prep API. It is the
// primary source for stocks, forex, indices, and commodities.
type FMPAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewFMPAdapter creates a new FMPAdapter.
func NewFMPAdapter(baseURL, apiKey string, timeoutSec int) *FMPAdapter {
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com/api/v3"
	}
	return &FMPAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Name returns the adapter identifier used in Quote.Source.
func (a *FMPAdapter) Name() string { return "fmp" }

// Supports reports the asset classes served by this adapter.
func (a *FMPAdapter) Supports(class quote.AssetClass) bool {
	switch class {
	case quote.ClassStock, quote.ClassForex, quote.ClassIndex, quote.ClassCommodity:
		return true
	default:
		return false
	}
}

// indexSymbols maps common index shorthand to FMP's caret notation.
var indexSymbols = map[string]string{
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"DJI":    "^DJI",
	"DOW":    "^DJI",
	"IXIC":   "^IXIC",
	"NASDAQ": "^IXIC",
	"RUT":    "^RUT",
	"VIX":    "^VIX",
	"FTSE":   "^FTSE",
	"DAX":    "^GDAXI",
	"N225":   "^N225",
	"NIKKEI": "^N225",
	"HSI":    "^HSI",
}

// commoditySymbols maps commodity names to FMP's futures codes.
var commoditySymbols = map[string]string{
	"GOLD":     "GCUSD",
	"GC":       "GCUSD",
	"SILVER":   "SIUSD",
	"SI":       "SIUSD",
	"PLATINUM": "PLUSD",
	"OIL":      "CLUSD",
	"WTI":      "CLUSD",
	"CL":       "CLUSD",
	"BRENT":    "BZUSD",
	"NATGAS":   "NGUSD",
	"NG":       "NGUSD",
	"COPPER":   "HGUSD",
	"HG":       "HGUSD",
}

// translateSymbol converts a canonical symbol into FMP's naming for the given
// asset class.
func (a *FMPAdapter) translateSymbol(class quote.AssetClass, symbol string) string {
	switch class {
	case quote.ClassIndex:
		if s, ok := indexSymbols[symbol]; ok {
			return s
		}
		return symbol
	case quote.ClassCommodity:
		if s, ok := commoditySymbols[symbol]; ok {
			return s
		}
		return symbol
	case quote.ClassForex:
		return forexPair(symbol)
	default:
		return symbol
	}
}

// forexPair normalizes forex symbols to FMP's six-letter pair convention:
// "EUR/USD" and "EUR-USD" become "EURUSD", a bare three-letter currency code
// gets the USD suffix.
func forexPair(symbol string) string {
	s := strings.NewReplacer("/", "", "-", "").Replace(symbol)
	if len(s) == 3 {
		return s + "USD"
	}
	return s
}

type fmpQuote struct {
	Symbol            string   `json:"symbol"`
	Price             float64  `json:"price"`
	Change            float64  `json:"change"`
	ChangesPercentage float64  `json:"changesPercentage"`
	DayHigh           *float64 `json:"dayHigh"`
	DayLow            *float64 `json:"dayLow"`
	Volume            *float64 `json:"volume"`
	MarketCap         *float64 `json:"marketCap"`
}

// Fetch retrieves a quote from FMP's /quote endpoint.
func (a *FMPAdapter) Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
	translated := a.translateSymbol(class, symbol)
	reqURL := fmt.Sprintf("%s/quote/%s?apikey=%s", a.baseURL, translated, a.apiKey)

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

	var result []fmpQuote
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("failed to decode response: %w", err))
	}
	// FMP answers unknown symbols with an empty array, not a 404.
	if len(result) == 0 {
		return nil, Permanent(a.Name(), symbol, fmt.Errorf("empty quote array"))
	}

	r := result[0]
	return &quote.Quote{
		Key:           quote.Key(class, symbol),
		Symbol:        symbol,
		AssetClass:    class,
		Price:         r.Price,
		Change:        r.Change,
		ChangePercent: r.ChangesPercentage,
		High:          r.DayHigh,
		Low:           r.DayLow,
		Volume:        r.Volume,
		MarketCap:     r.MarketCap,
		Source:        a.Name(),
		FetchedAt:     time.Now().UTC(),
	}, nil
}
