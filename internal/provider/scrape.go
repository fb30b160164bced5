package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"marketgateway/internal/quote"
)

var _ Adapter = (*ScrapeAdapter)(nil)

// ScrapeAdapter extracts quotes from a public HTML quote page for asset
// classes with no first-class API. It pattern-matches a small set of
// well-known data attributes and makes no schema guarantees: any markup
// change upstream breaks it, which is why it must sit last in its chain
// segment and is the first adapter to disable when extraction starts
// failing.
type ScrapeAdapter struct {
	baseURL string
	client  *http.Client
}

// NewScrapeAdapter creates a new ScrapeAdapter.
func NewScrapeAdapter(baseURL string, timeoutSec int) *ScrapeAdapter {
	if baseURL == "" {
		baseURL = "https://www.google.com/finance/quote"
	}
	return &ScrapeAdapter{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Name returns the adapter identifier used in Quote.Source.
func (a *ScrapeAdapter) Name() string { return "scrape" }

// Supports reports the asset classes served by this adapter.
func (a *ScrapeAdapter) Supports(class quote.AssetClass) bool {
	return class == quote.ClassIndex || class == quote.ClassCommodity
}

// scrapePaths maps canonical symbols to the quote-page path for each. Only
// symbols listed here are scrapeable.
var scrapePaths = map[string]string{
	"SPX":    ".INX:INDEXSP",
	"SP500":  ".INX:INDEXSP",
	"DJI":    ".DJI:INDEXDJX",
	"DOW":    ".DJI:INDEXDJX",
	"IXIC":   ".IXIC:INDEXNASDAQ",
	"NASDAQ": ".IXIC:INDEXNASDAQ",
	"GOLD":   "GCW00:COMEX",
	"GC":     "GCW00:COMEX",
	"SILVER": "SIW00:COMEX",
	"SI":     "SIW00:COMEX",
	"OIL":    "CLW00:NYMEX",
	"CL":     "CLW00:NYMEX",
}

var (
	lastPriceRe     = regexp.MustCompile(`data-last-price="([0-9][0-9.,]*)"`)
	previousCloseRe = regexp.MustCompile(`data-last-normal-market-price="([0-9][0-9.,]*)"`)
)

// Fetch downloads the quote page and extracts the price fields.
func (a *ScrapeAdapter) Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error) {
	path, ok := scrapePaths[symbol]
	if !ok {
		return nil, Permanent(a.Name(), symbol, fmt.Errorf("no scrape path mapping"))
	}

	reqURL := fmt.Sprintf("%s/%s", a.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("request creation failed: %w", err))
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; marketgateway/1.0)")
	req.Header.Set("Accept", "text/html")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, classifyStatus(a.Name(), symbol, resp.StatusCode, string(body))
	}

	// Quote pages run a few hundred KB; cap the read.
	html, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, Transient(a.Name(), fmt.Errorf("read body: %w", err))
	}

	price, ok := extractNumber(lastPriceRe, html)
	if !ok {
		// Markup drift, not a provider outage.
		return nil, Permanent(a.Name(), symbol, fmt.Errorf("price pattern not found in page"))
	}

	q := &quote.Quote{
		Key:        quote.Key(class, symbol),
		Symbol:     symbol,
		AssetClass: class,
		Price:      price,
		Source:     a.Name(),
		FetchedAt:  time.Now().UTC(),
	}
	if prev, ok := extractNumber(previousCloseRe, html); ok && prev > 0 {
		q.Change = price - prev
		q.ChangePercent = (price - prev) / prev * 100
	}
	return q, nil
}

func extractNumber(re *regexp.Regexp, html []byte) (float64, bool) {
	m := re.FindSubmatch(html)
	if len(m) != 2 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(string(m[1]), ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
