package kalshi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oddsradar/oddsradar/internal/domain"
)

func TestGetMarketsParsesPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("status"); got != "open" {
			t.Errorf("status param = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("limit param = %q", got)
		}
		w.Write([]byte(`{
			"markets": [
				{"ticker": "A", "title": "First", "yes_ask": 55, "status": "open"},
				{"ticker": "B", "title": "Second", "yes_ask": "12", "status": "open"}
			],
			"cursor": "next-page"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	markets, cursor, err := c.GetMarkets(context.Background(), 2, "", "open")
	if err != nil {
		t.Fatalf("GetMarkets: %v", err)
	}
	if len(markets) != 2 || cursor != "next-page" {
		t.Fatalf("got %d markets, cursor %q", len(markets), cursor)
	}
	// Quoted numbers decode too.
	if float64(markets[1].YesAsk) != 12 {
		t.Errorf("quoted yes_ask = %v", float64(markets[1].YesAsk))
	}
}

func TestGetMarketNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code": "market_not_found", "message": "no such market"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetMarket(context.Background(), "NOPE")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestGetMarketsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code": "rate_limited", "message": "slow down"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, _, err := c.GetMarkets(context.Background(), 10, "", "")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

func TestGetMarketHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/FED/history" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"history": [{"ts": 1700000000, "yes_price": 55}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	points, err := c.GetMarketHistory(context.Background(), "FED", 10)
	if err != nil {
		t.Fatalf("GetMarketHistory: %v", err)
	}
	if len(points) != 1 || points[0].Ts != 1700000000 {
		t.Fatalf("points = %v", points)
	}
}

func TestSourceStatusPushdown(t *testing.T) {
	var gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		w.Write([]byte(`{"markets": [], "cursor": ""}`))
	}))
	defer srv.Close()

	src := NewSource(NewClient(srv.URL))
	ctx := context.Background()

	cases := map[domain.MarketStatus]string{
		"":                          "open",
		domain.MarketStatusOpen:     "open",
		domain.MarketStatusClosed:   "closed",
		domain.MarketStatusResolved: "settled",
	}
	for status, want := range cases {
		if _, err := src.FetchListings(ctx, domain.ListingsFilter{Limit: 5, Status: status}); err != nil {
			t.Fatalf("FetchListings(%q): %v", status, err)
		}
		if gotStatus != want {
			t.Errorf("status %q pushed down as %q, want %q", status, gotStatus, want)
		}
	}
}
