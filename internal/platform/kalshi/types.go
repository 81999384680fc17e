package kalshi

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// flexFloat unmarshals from a JSON number, quoted number, null, or
// anything else. Malformed values decode to zero instead of failing the
// whole record.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexFloat(n)
			return nil
		}
	}
	*f = 0
	return nil
}

// KalshiMarket represents a market as returned by the Kalshi REST API.
// Prices are quoted in cents (0-100).
type KalshiMarket struct {
	Ticker         string    `json:"ticker"`
	EventTicker    string    `json:"event_ticker"`
	Title          string    `json:"title"`
	Subtitle       string    `json:"subtitle"`
	RulesPrimary   string    `json:"rules_primary"`
	Category       string    `json:"category"`
	Status         string    `json:"status"` // "open", "closed", "settled"
	YesBid         flexFloat `json:"yes_bid"`
	YesAsk         flexFloat `json:"yes_ask"`
	NoBid          flexFloat `json:"no_bid"`
	NoAsk          flexFloat `json:"no_ask"`
	LastPrice      flexFloat `json:"last_price"`
	PreviousYesAsk flexFloat `json:"previous_yes_ask"`
	Volume         flexFloat `json:"volume"`
	Volume24H      flexFloat `json:"volume_24h"`
	OpenInterest   flexFloat `json:"open_interest"`
	CloseTime      string    `json:"close_time"`
	ExpirationTime string    `json:"expiration_time"`
	ResultSource   string    `json:"result_source"`
	Result         string    `json:"result"` // "yes", "no", "" (unsettled)
}

// KalshiHistoryPoint is one entry of a market's historical series.
type KalshiHistoryPoint struct {
	Ts           int64     `json:"ts"` // Unix seconds
	YesPrice     flexFloat `json:"yes_price"`
	YesBid       flexFloat `json:"yes_bid"`
	YesAsk       flexFloat `json:"yes_ask"`
	Volume       flexFloat `json:"volume"`
	OpenInterest flexFloat `json:"open_interest"`
}

// statusTable maps Kalshi's status vocabulary onto the canonical one.
// Unknown values default to open.
var statusTable = map[string]domain.MarketStatus{
	"open":    domain.MarketStatusOpen,
	"closed":  domain.MarketStatusClosed,
	"settled": domain.MarketStatusResolved,
}

// ToDomainMarket normalizes a raw Kalshi market into the canonical
// record. It is total: missing or malformed fields fall back to
// defaults, and it never fails.
func (m *KalshiMarket) ToDomainMarket() domain.Market {
	status, ok := statusTable[m.Status]
	if !ok {
		status = domain.MarketStatusOpen
	}

	// Cent quotes to fractions. A yes price at exactly even odds is
	// indistinguishable from a missing quote, so the last trade price
	// takes over in both cases.
	priceYes, priceNo := 0.5, 0.5
	if m.YesAsk > 0 {
		priceYes = float64(m.YesAsk) / 100
	}
	if m.NoAsk > 0 {
		priceNo = float64(m.NoAsk) / 100
	}
	if priceYes == 0.5 && m.LastPrice > 0 {
		priceYes = float64(m.LastPrice) / 100
		priceNo = 1 - priceYes
	}

	// Percent change of the yes ask against the previous session.
	change := 0.0
	if m.PreviousYesAsk > 0 && m.YesAsk > 0 {
		change = (float64(m.YesAsk) - float64(m.PreviousYesAsk)) / float64(m.PreviousYesAsk) * 100
	}

	title := m.Title
	if title == "" {
		title = m.Subtitle
	}
	if title == "" {
		title = "Unknown"
	}

	category := m.Category
	if category == "" {
		category = "Other"
	}

	return domain.Market{
		ID:               "kalshi_" + m.Ticker,
		Platform:         domain.PlatformKalshi,
		Title:            title,
		Description:      m.RulesPrimary,
		Category:         category,
		Status:           status,
		Probability:      priceYes,
		OpenInterest:     float64(m.OpenInterest),
		Volume24h:        float64(m.Volume24H),
		VolumeTotal:      float64(m.Volume),
		PriceYes:         priceYes,
		PriceNo:          priceNo,
		EndDate:          parseEndDate(m.CloseTime, m.ExpirationTime),
		Change24h:        change,
		Outcomes:         []string{"Yes", "No"},
		ResolutionSource: m.ResultSource,
	}
}

// ToHistoryPoint converts a raw history entry to the canonical series
// point. Cent quotes are scaled to fractions.
func (p *KalshiHistoryPoint) ToHistoryPoint() domain.HistoryPoint {
	priceYes := float64(p.YesPrice) / 100
	if p.YesPrice <= 0 && p.YesAsk > 0 {
		priceYes = float64(p.YesAsk) / 100
	}
	return domain.HistoryPoint{
		Timestamp:    time.Unix(p.Ts, 0).UTC(),
		PriceYes:     priceYes,
		PriceNo:      1 - priceYes,
		Probability:  priceYes,
		OpenInterest: float64(p.OpenInterest),
		Volume:       float64(p.Volume),
	}
}

// parseEndDate returns the first parseable RFC3339 timestamp among the
// candidates, or nil. It never fails on malformed input.
func parseEndDate(candidates ...string) *time.Time {
	for _, s := range candidates {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
