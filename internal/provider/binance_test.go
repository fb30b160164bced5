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

func TestBinanceAdapter_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"97123.45","priceChange":"1200.00","priceChangePercent":"1.25","highPrice":"98000.00","lowPrice":"95500.00","quoteVolume":"1234567890.12"}`))
	}))
	defer srv.Close()

	a := NewBinanceAdapter(srv.URL, 5)
	q, err := a.Fetch(context.Background(), quote.ClassCrypto, "BTC")
	require.NoError(t, err)

	assert.Equal(t, "crypto:BTC", q.Key)
	assert.Equal(t, "BTC", q.Symbol)
	assert.Equal(t, 97123.45, q.Price)
	assert.Equal(t, 1200.00, q.Change)
	assert.Equal(t, 1.25, q.ChangePercent)
	require.NotNil(t, q.High)
	assert.Equal(t, 98000.00, *q.High)
	require.NotNil(t, q.Volume)
	assert.Equal(t, "binance", q.Source)
}

func TestBinanceAdapter_UnknownPairIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	a := NewBinanceAdapter(srv.URL, 5)
	_, err := a.Fetch(context.Background(), quote.ClassCrypto, "NOPE")
	assert.True(t, IsPermanent(err), "unknown pair must be permanent, got %v", err)
}

func TestBinanceAdapter_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewBinanceAdapter(srv.URL, 5)
	_, err := a.Fetch(context.Background(), quote.ClassCrypto, "BTC")
	assert.True(t, IsTransient(err))
}

func TestBinanceAdapter_BadPriceIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"not-a-number"}`))
	}))
	defer srv.Close()

	a := NewBinanceAdapter(srv.URL, 5)
	_, err := a.Fetch(context.Background(), quote.ClassCrypto, "BTC")
	assert.True(t, IsTransient(err))
}

func TestBinanceAdapter_Supports(t *testing.T) {
	a := NewBinanceAdapter("", 5)
	assert.True(t, a.Supports(quote.ClassCrypto))
	assert.False(t, a.Supports(quote.ClassStock))
}
