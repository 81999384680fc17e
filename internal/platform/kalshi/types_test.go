package kalshi

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/oddsradar/oddsradar/internal/domain"
)

func TestFlexFloatToleratesAnything(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{`42`, 42},
		{`1.5`, 1.5},
		{`"63"`, 63},
		{`" 63.5 "`, 63.5},
		{`null`, 0},
		{`"n/a"`, 0},
		{`true`, 0},
		{`{"nested":1}`, 0},
	}
	for _, c := range cases {
		var f flexFloat
		if err := json.Unmarshal([]byte(c.raw), &f); err != nil {
			t.Errorf("%s: unexpected error %v", c.raw, err)
		}
		if float64(f) != c.want {
			t.Errorf("%s: got %v, want %v", c.raw, float64(f), c.want)
		}
	}
}

func TestToDomainMarketCentsAndChange(t *testing.T) {
	m := KalshiMarket{
		Ticker:         "FED-25DEC-T4.75",
		Title:          "Fed funds above 4.75%",
		Category:       "Economics",
		Status:         "open",
		YesAsk:         63,
		NoAsk:          39,
		PreviousYesAsk: 60,
		Volume24H:      1200,
		Volume:         50000,
		OpenInterest:   8000,
		CloseTime:      "2025-12-10T15:00:00Z",
	}

	got := m.ToDomainMarket()

	if got.ID != "kalshi_FED-25DEC-T4.75" {
		t.Errorf("ID = %s", got.ID)
	}
	if got.Platform != domain.PlatformKalshi {
		t.Errorf("Platform = %s", got.Platform)
	}
	if got.PriceYes != 0.63 || got.PriceNo != 0.39 {
		t.Errorf("prices = %v/%v", got.PriceYes, got.PriceNo)
	}
	if got.Probability != 0.63 {
		t.Errorf("probability = %v", got.Probability)
	}
	if math.Abs(got.Change24h-5.0) > 1e-9 {
		t.Errorf("change = %v, want 5", got.Change24h)
	}
	if got.EndDate == nil || !got.EndDate.Equal(time.Date(2025, 12, 10, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("end date = %v", got.EndDate)
	}
	if len(got.Outcomes) != 2 || got.Outcomes[0] != "Yes" {
		t.Errorf("outcomes = %v", got.Outcomes)
	}
}

func TestToDomainMarketLastPriceFallback(t *testing.T) {
	m := KalshiMarket{Ticker: "X", Status: "open", LastPrice: 40}

	got := m.ToDomainMarket()

	if got.PriceYes != 0.40 {
		t.Errorf("PriceYes = %v, want last_price fallback 0.40", got.PriceYes)
	}
	if math.Abs(got.PriceNo-0.60) > 1e-9 {
		t.Errorf("PriceNo = %v, want 0.60", got.PriceNo)
	}
	if got.Change24h != 0 {
		t.Errorf("change = %v, want 0 without a resting ask", got.Change24h)
	}
}

func TestToDomainMarketEvenAskUsesLastPrice(t *testing.T) {
	// An ask of exactly 50 cents reads as a placeholder quote; the
	// last trade wins.
	m := KalshiMarket{Ticker: "Y", Status: "open", YesAsk: 50, NoAsk: 50, LastPrice: 37}

	got := m.ToDomainMarket()

	if got.PriceYes != 0.37 {
		t.Errorf("PriceYes = %v, want 0.37", got.PriceYes)
	}
	if math.Abs(got.PriceNo-0.63) > 1e-9 {
		t.Errorf("PriceNo = %v, want 0.63", got.PriceNo)
	}

	// A non-even ask keeps its own quote even when a last trade exists.
	m = KalshiMarket{Ticker: "Z", Status: "open", YesAsk: 62, NoAsk: 40, LastPrice: 37}
	if got := m.ToDomainMarket(); got.PriceYes != 0.62 || got.PriceNo != 0.40 {
		t.Errorf("prices = %v/%v, want 0.62/0.40", got.PriceYes, got.PriceNo)
	}
}

func TestToDomainMarketDefaults(t *testing.T) {
	m := KalshiMarket{Ticker: "EMPTY"}

	got := m.ToDomainMarket()

	if got.Status != domain.MarketStatusOpen {
		t.Errorf("status = %s, want open for unknown", got.Status)
	}
	if got.Title != "Unknown" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Category != "Other" {
		t.Errorf("category = %q", got.Category)
	}
	if got.PriceYes != 0.5 || got.PriceNo != 0.5 {
		t.Errorf("prices = %v/%v, want 0.5/0.5", got.PriceYes, got.PriceNo)
	}
	if got.EndDate != nil {
		t.Errorf("end date = %v, want nil", got.EndDate)
	}
}

func TestStatusTable(t *testing.T) {
	cases := map[string]domain.MarketStatus{
		"open":     domain.MarketStatusOpen,
		"closed":   domain.MarketStatusClosed,
		"settled":  domain.MarketStatusResolved,
		"finalize": domain.MarketStatusOpen, // unknown defaults to open
	}
	for raw, want := range cases {
		m := KalshiMarket{Ticker: "T", Status: raw}
		if got := m.ToDomainMarket().Status; got != want {
			t.Errorf("%s: got %s, want %s", raw, got, want)
		}
	}
}

func TestToDomainMarketSubtitleFallback(t *testing.T) {
	m := KalshiMarket{Ticker: "S", Subtitle: "Above 4.75%"}
	if got := m.ToDomainMarket().Title; got != "Above 4.75%" {
		t.Errorf("title = %q", got)
	}
}

func TestHistoryPointConversion(t *testing.T) {
	p := KalshiHistoryPoint{Ts: 1_700_000_000, YesPrice: 55, Volume: 300, OpenInterest: 900}

	got := p.ToHistoryPoint()

	if got.PriceYes != 0.55 || math.Abs(got.PriceNo-0.45) > 1e-9 {
		t.Errorf("prices = %v/%v", got.PriceYes, got.PriceNo)
	}
	if !got.Timestamp.Equal(time.Unix(1_700_000_000, 0)) {
		t.Errorf("timestamp = %v", got.Timestamp)
	}

	// With no trade price, fall back to the ask.
	p = KalshiHistoryPoint{Ts: 1, YesAsk: 30}
	if got := p.ToHistoryPoint(); got.PriceYes != 0.30 {
		t.Errorf("ask fallback = %v", got.PriceYes)
	}
}

func TestParseEndDatePrefersFirstValid(t *testing.T) {
	d := parseEndDate("not-a-date", "2026-01-02T03:04:05Z")
	if d == nil || d.Year() != 2026 {
		t.Errorf("parseEndDate = %v", d)
	}
	if parseEndDate("", "also bad") != nil {
		t.Error("malformed candidates should yield nil")
	}
}
