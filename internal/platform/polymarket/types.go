package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// flexBool unmarshals from a JSON bool or string ("true"/"false"/"1") so
// Gamma responses work whether flags are sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexBool(strings.EqualFold(s, "true") || s == "1")
		return nil
	}
	*f = false
	return nil
}

// flexFloat unmarshals from a JSON number, quoted number, null, or
// anything else. Malformed values decode to zero.
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

// APIMarket represents a market as returned by the Gamma API. The
// outcome and price lists arrive as JSON-encoded strings, e.g.
// "[\"Yes\",\"No\"]" and "[\"0.52\",\"0.48\"]".
type APIMarket struct {
	ID               string    `json:"id"`
	Question         string    `json:"question"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Slug             string    `json:"slug"`
	Active           flexBool  `json:"active"`
	Closed           flexBool  `json:"closed"`
	Resolved         flexBool  `json:"resolved"`
	Outcomes         string    `json:"outcomes"`
	OutcomePrices    string    `json:"outcomePrices"`
	Volume           flexFloat `json:"volume"`
	Volume24hr       flexFloat `json:"volume24hr"`
	Liquidity        flexFloat `json:"liquidity"`
	Spread           flexFloat `json:"spread"`
	EndDate          string    `json:"endDate"`
	Image            string    `json:"image"`
	ResolutionSource string    `json:"resolutionSource"`
}

// ToDomainMarket normalizes a raw Gamma market into the canonical
// record. It is total: missing or malformed fields fall back to
// defaults, and it never fails.
func (m *APIMarket) ToDomainMarket() domain.Market {
	priceYes, priceNo := 0.5, 0.5
	if prices := decodeStringList(m.OutcomePrices); len(prices) >= 2 {
		if p, err := strconv.ParseFloat(prices[0], 64); err == nil {
			priceYes = p
		}
		if p, err := strconv.ParseFloat(prices[1], 64); err == nil {
			priceNo = p
		}
	}

	status := domain.MarketStatusOpen
	if bool(m.Closed) {
		status = domain.MarketStatusClosed
	}
	if bool(m.Resolved) {
		status = domain.MarketStatusResolved
	}

	title := m.Question
	if title == "" {
		title = m.Title
	}
	if title == "" {
		title = "Unknown"
	}

	category := m.Category
	if category == "" {
		category = "Other"
	}

	var endDate *time.Time
	if m.EndDate != "" {
		if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
			t = t.UTC()
			endDate = &t
		}
	}

	return domain.Market{
		ID:          "poly_" + m.ID,
		Platform:    domain.PlatformPolymarket,
		Title:       title,
		Description: m.Description,
		Category:    category,
		Status:      status,
		Probability: priceYes,
		// Gamma exposes no open-interest figure; liquidity is the
		// closest available proxy.
		OpenInterest: float64(m.Liquidity),
		Volume24h:    float64(m.Volume24hr),
		VolumeTotal:  float64(m.Volume),
		PriceYes:     priceYes,
		PriceNo:      priceNo,
		EndDate:      endDate,
		// The bid/ask spread scaled to percent stands in for a 24h
		// change; Kalshi derives its change differently and the two are
		// intentionally not reconciled.
		Change24h:        float64(m.Spread) * 100,
		ImageURL:         m.Image,
		Outcomes:         decodeStringList(m.Outcomes),
		ResolutionSource: m.ResolutionSource,
	}
}

// decodeStringList decodes a JSON-encoded string array, returning nil on
// malformed input.
func decodeStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
