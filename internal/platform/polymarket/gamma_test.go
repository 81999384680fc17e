package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oddsradar/oddsradar/internal/domain"
)

func TestGetMarketsActiveOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("closed"); got != "false" {
			t.Errorf("closed param = %q, want false", got)
		}
		w.Write([]byte(`[
			{"id": "100", "question": "Q1", "outcomePrices": "[\"0.7\",\"0.3\"]"},
			{"id": "101", "question": "Q2", "volume24hr": "55.5"}
		]`))
	}))
	defer srv.Close()

	c := NewGammaClient(srv.URL)
	markets, err := c.GetMarkets(context.Background(), 10, 0, true)
	if err != nil {
		t.Fatalf("GetMarkets: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("got %d markets", len(markets))
	}
	if float64(markets[1].Volume24hr) != 55.5 {
		t.Errorf("quoted volume24hr = %v", float64(markets[1].Volume24hr))
	}
}

func TestGetMarketsIncludesClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("closed") {
			t.Error("closed param set for non-active query")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewGammaClient(srv.URL)
	if _, err := c.GetMarkets(context.Background(), 10, 0, false); err != nil {
		t.Fatalf("GetMarkets: %v", err)
	}
}

func TestGetMarketNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not found"}`))
	}))
	defer srv.Close()

	c := NewGammaClient(srv.URL)
	_, err := c.GetMarket(context.Background(), "999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSourceNormalizesListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "7", "question": "Will it rain?", "outcomePrices": "[\"0.2\",\"0.8\"]", "active": "true"}]`))
	}))
	defer srv.Close()

	src := NewSource(NewGammaClient(srv.URL))
	markets, err := src.FetchListings(context.Background(), domain.ListingsFilter{Limit: 5})
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}
	if len(markets) != 1 {
		t.Fatalf("got %d markets", len(markets))
	}
	if markets[0].ID != "poly_7" || markets[0].PriceYes != 0.2 {
		t.Errorf("normalized = %+v", markets[0])
	}
}
