// Package quote defines the canonical quote model shared by the gateway,
// providers, cache, and API layers.
package quote

import (
	"errors"
	"strings"
	"time"
)

// AssetClass identifies the market segment a symbol belongs to.
type AssetClass string

// Supported asset classes.
const (
	ClassStock     AssetClass = "stock"
	ClassCrypto    AssetClass = "crypto"
	ClassForex     AssetClass = "forex"
	ClassIndex     AssetClass = "index"
	ClassCommodity AssetClass = "commodity"
)

// ErrInvalidAssetClass indicates an unknown asset class string.
var ErrInvalidAssetClass = errors.New("invalid asset class")

// ErrInvalidSymbol indicates a symbol that fails basic validation.
var ErrInvalidSymbol = errors.New("invalid symbol")

// ParseAssetClass converts a string into an AssetClass. An empty string
// defaults to ClassStock.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stock":
		return ClassStock, nil
	case "crypto":
		return ClassCrypto, nil
	case "forex":
		return ClassForex, nil
	case "index":
		return ClassIndex, nil
	case "commodity":
		return ClassCommodity, nil
	default:
		return "", ErrInvalidAssetClass
	}
}

// Quote is the canonical result of a successful price fetch. High, Low,
// Volume, and MarketCap are optional enrichments: not all providers expose
// them, and absence is meaningful.
type Quote struct {
	Key           string     `json:"key"`
	Symbol        string     `json:"symbol"`
	AssetClass    AssetClass `json:"asset_class"`
	Price         float64    `json:"price"`
	Change        float64    `json:"change"`
	ChangePercent float64    `json:"change_percent"`
	High          *float64   `json:"high,omitempty"`
	Low           *float64   `json:"low,omitempty"`
	Volume        *float64   `json:"volume,omitempty"`
	MarketCap     *float64   `json:"market_cap,omitempty"`
	Source        string     `json:"source"`
	FetchedAt     time.Time  `json:"fetched_at"`
}

// Key builds the normalized request identity for a class/symbol pair,
// e.g. "crypto:BTC".
func Key(class AssetClass, symbol string) string {
	return string(class) + ":" + strings.ToUpper(symbol)
}

// NormalizeSymbol uppercases and validates a raw symbol.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if !IsValidSymbol(s) {
		return "", ErrInvalidSymbol
	}
	return s, nil
}

// IsValidSymbol reports whether a string is an acceptable ticker. Tickers are
// 1-12 characters: letters, digits, and the punctuation used by index,
// futures, and pair notations (^ . = - /).
func IsValidSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > 12 {
		return false
	}
	for _, c := range symbol {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '^' || c == '.' || c == '=' || c == '-' || c == '/':
		default:
			return false
		}
	}
	return true
}
