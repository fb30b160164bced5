// Package fallback holds the hand-curated approximate-price table used as a
// last resort when every live path has failed and no cache entry exists.
package fallback

import (
	"time"

	"marketgateway/internal/quote"
)

// Source is the Quote.Source value for curated entries.
const Source = "fallback"

// defaultPrices is a curated snapshot of widely-watched assets. The values
// are deliberately approximate; they exist so a dashboard renders something
// plausible during a full provider outage, never for accuracy. Reviewed
// manually from time to time.
var defaultPrices = map[string]float64{
	"crypto:BTC":       97000,
	"crypto:ETH":       3400,
	"crypto:SOL":       190,
	"crypto:XRP":       2.40,
	"crypto:DOGE":      0.25,
	"stock:AAPL":       230,
	"stock:MSFT":       440,
	"stock:GOOGL":      190,
	"stock:AMZN":       220,
	"stock:NVDA":       140,
	"stock:TSLA":       330,
	"index:SPX":        6000,
	"index:DJI":        44000,
	"index:IXIC":       19500,
	"forex:EURUSD":     1.08,
	"forex:GBPUSD":     1.27,
	"forex:USDJPY":     152,
	"commodity:GOLD":   2700,
	"commodity:SILVER": 31,
	"commodity:OIL":    70,
}

// Table answers last-resort lookups from the curated price map.
type Table struct {
	prices map[string]float64
}

// NewTable builds a Table from the built-in defaults merged with overrides
// (overrides win; a zero override removes the entry).
func NewTable(overrides map[string]float64) *Table {
	prices := make(map[string]float64, len(defaultPrices)+len(overrides))
	for k, v := range defaultPrices {
		prices[k] = v
	}
	for k, v := range overrides {
		if v <= 0 {
			delete(prices, k)
			continue
		}
		prices[k] = v
	}
	return &Table{prices: prices}
}

// Lookup returns a synthetic quote for key if the table has an entry.
// Change fields are zero: there is no live data to derive them from.
func (t *Table) Lookup(class quote.AssetClass, symbol string) (*quote.Quote, bool) {
	key := quote.Key(class, symbol)
	price, ok := t.prices[key]
	if !ok {
		return nil, false
	}
	return &quote.Quote{
		Key:        key,
		Symbol:     symbol,
		AssetClass: class,
		Price:      price,
		Source:     Source,
		FetchedAt:  time.Now().UTC(),
	}, true
}
