package polymarket

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/oddsradar/oddsradar/internal/domain"
)

func TestFlexBool(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"TRUE"`, true},
		{`"1"`, true},
		{`"false"`, false},
		{`null`, false},
		{`42`, false},
	}
	for _, c := range cases {
		var f flexBool
		if err := json.Unmarshal([]byte(c.raw), &f); err != nil {
			t.Errorf("%s: unexpected error %v", c.raw, err)
		}
		if bool(f) != c.want {
			t.Errorf("%s: got %v, want %v", c.raw, bool(f), c.want)
		}
	}
}

func TestToDomainMarketDecodesEncodedLists(t *testing.T) {
	m := APIMarket{
		ID:            "12345",
		Question:      "Will BTC close above 100k this year?",
		Category:      "Crypto",
		Active:        true,
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.62","0.38"]`,
		Volume:        250000,
		Volume24hr:    9000,
		Liquidity:     40000,
		Spread:        0.03,
		EndDate:       "2026-12-31T23:59:59Z",
	}

	got := m.ToDomainMarket()

	if got.ID != "poly_12345" {
		t.Errorf("ID = %s", got.ID)
	}
	if got.Platform != domain.PlatformPolymarket {
		t.Errorf("Platform = %s", got.Platform)
	}
	if got.PriceYes != 0.62 || got.PriceNo != 0.38 {
		t.Errorf("prices = %v/%v", got.PriceYes, got.PriceNo)
	}
	if got.Probability != 0.62 {
		t.Errorf("probability = %v", got.Probability)
	}
	if got.OpenInterest != 40000 {
		t.Errorf("open interest = %v, want liquidity proxy 40000", got.OpenInterest)
	}
	if math.Abs(got.Change24h-3.0) > 1e-9 {
		t.Errorf("change = %v, want spread*100 = 3", got.Change24h)
	}
	if len(got.Outcomes) != 2 || got.Outcomes[0] != "Yes" {
		t.Errorf("outcomes = %v", got.Outcomes)
	}
	if got.EndDate == nil || got.EndDate.Year() != 2026 {
		t.Errorf("end date = %v", got.EndDate)
	}
}

func TestToDomainMarketStatusPrecedence(t *testing.T) {
	open := APIMarket{ID: "1", Active: true}
	if got := open.ToDomainMarket().Status; got != domain.MarketStatusOpen {
		t.Errorf("active: got %s", got)
	}

	closed := APIMarket{ID: "2", Closed: true}
	if got := closed.ToDomainMarket().Status; got != domain.MarketStatusClosed {
		t.Errorf("closed: got %s", got)
	}

	// Resolved wins over closed.
	resolved := APIMarket{ID: "3", Closed: true, Resolved: true}
	if got := resolved.ToDomainMarket().Status; got != domain.MarketStatusResolved {
		t.Errorf("resolved: got %s", got)
	}
}

func TestToDomainMarketMalformedPrices(t *testing.T) {
	m := APIMarket{ID: "9", Question: "Q", OutcomePrices: `not json`}

	got := m.ToDomainMarket()

	if got.PriceYes != 0.5 || got.PriceNo != 0.5 {
		t.Errorf("prices = %v/%v, want 0.5/0.5 defaults", got.PriceYes, got.PriceNo)
	}
	if got.Outcomes != nil {
		t.Errorf("outcomes = %v, want nil for empty field", got.Outcomes)
	}
}

func TestToDomainMarketTitleFallbacks(t *testing.T) {
	m := APIMarket{ID: "1", Title: "Fallback title"}
	if got := m.ToDomainMarket().Title; got != "Fallback title" {
		t.Errorf("title = %q", got)
	}

	m = APIMarket{ID: "2"}
	if got := m.ToDomainMarket().Title; got != "Unknown" {
		t.Errorf("title = %q", got)
	}
	if got := m.ToDomainMarket().Category; got != "Other" {
		t.Errorf("category = %q", got)
	}
}
