package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketgateway/internal/quote"
)

func TestCoinGeckoAdapter_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":97000,"usd_24h_change":2.5,"usd_market_cap":1900000000000}}`))
	}))
	defer srv.Close()

	a := NewCoinGeckoAdapter(srv.URL, "demo-key", 5)
	q, err := a.Fetch(context.Background(), quote.ClassCrypto, "BTC")
	require.NoError(t, err)

	assert.Equal(t, 97000.0, q.Price)
	assert.Equal(t, 2.5, q.ChangePercent)
	// Absolute change derives from price and percentage.
	assert.InDelta(t, 97000*2.5/102.5, q.Change, 1e-6)
	require.NotNil(t, q.MarketCap)
	assert.Equal(t, "coingecko", q.Source)
}

func TestCoinGeckoAdapter_UnmappedSymbolIsPermanent(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := NewCoinGeckoAdapter(srv.URL, "", 5)
	_, err := a.Fetch(context.Background(), quote.ClassCrypto, "OBSCURECOIN")
	assert.True(t, IsPermanent(err))
	assert.False(t, called, "no network call should be spent on unmapped symbols")
}

func TestCoinGeckoAdapter_EmptyResultIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := NewCoinGeckoAdapter(srv.URL, "", 5)
	_, err := a.Fetch(context.Background(), quote.ClassCrypto, "BTC")
	assert.True(t, IsPermanent(err))
}

func TestCoinGeckoAdapter_RateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewCoinGeckoAdapter(srv.URL, "", 5)
	_, err := a.Fetch(context.Background(), quote.ClassCrypto, "BTC")
	assert.True(t, IsTransient(err))
}
