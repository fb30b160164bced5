// Package provider implements upstream market data adapters for fetching
// quotes from external price sources.
package provider

import (
	"context"

	"marketgateway/internal/quote"
)

// Adapter is the contract every upstream price source implements. Fetch must
// issue a single outbound request with a bounded timeout, parse only the
// fields it trusts, and return a classified error (TransientError or
// PermanentError) so the breaker and chain can make correct decisions.
type Adapter interface {
	Name() string
	Supports(class quote.AssetClass) bool
	Fetch(ctx context.Context, class quote.AssetClass, symbol string) (*quote.Quote, error)
}
