package fallback

import (
	"testing"

	"marketgateway/internal/quote"
)

func TestLookup_Defaults(t *testing.T) {
	table := NewTable(nil)

	q, ok := table.Lookup(quote.ClassCrypto, "BTC")
	if !ok {
		t.Fatal("expected curated entry for crypto:BTC")
	}
	if q.Price != 97000 {
		t.Errorf("expected price 97000, got %v", q.Price)
	}
	if q.Source != Source {
		t.Errorf("expected source %q, got %q", Source, q.Source)
	}
	if q.Change != 0 || q.ChangePercent != 0 {
		t.Error("curated quotes must carry zero change fields")
	}
	if q.Key != "crypto:BTC" {
		t.Errorf("expected key crypto:BTC, got %s", q.Key)
	}
}

func TestLookup_Miss(t *testing.T) {
	table := NewTable(nil)
	if _, ok := table.Lookup(quote.ClassStock, "OBSCURE"); ok {
		t.Fatal("expected miss for symbol outside the curated set")
	}
	// Same symbol, wrong class.
	if _, ok := table.Lookup(quote.ClassStock, "BTC"); ok {
		t.Fatal("expected miss for BTC under the stock class")
	}
}

func TestOverrides(t *testing.T) {
	table := NewTable(map[string]float64{
		"crypto:BTC":  100000, // replace
		"stock:AAPL":  0,      // remove
		"stock:ACME":  12.5,   // add
	})

	q, ok := table.Lookup(quote.ClassCrypto, "BTC")
	if !ok || q.Price != 100000 {
		t.Fatalf("expected override price 100000, got ok=%v q=%+v", ok, q)
	}

	if _, ok := table.Lookup(quote.ClassStock, "AAPL"); ok {
		t.Fatal("expected zero override to remove the entry")
	}

	q, ok = table.Lookup(quote.ClassStock, "ACME")
	if !ok || q.Price != 12.5 {
		t.Fatalf("expected added entry at 12.5, got ok=%v q=%+v", ok, q)
	}
}

func TestLookup_NormalizesCase(t *testing.T) {
	table := NewTable(nil)
	if _, ok := table.Lookup(quote.ClassCrypto, "btc"); !ok {
		t.Fatal("expected lookup to be case-insensitive on the symbol")
	}
}
