package domain

import "time"

// Platform identifies the upstream provider a market originates from.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusOpen     MarketStatus = "open"
	MarketStatusClosed   MarketStatus = "closed"
	MarketStatusResolved MarketStatus = "resolved"
)

// Market is the canonical record every source adapter normalizes into.
// IDs are namespaced by platform ("kalshi_{ticker}", "poly_{id}") and
// stable across re-fetches of the same native record. PriceYes and
// PriceNo are both in [0,1] but are not guaranteed to sum to 1; the two
// platforms quote independently.
type Market struct {
	ID               string       `json:"id"`
	Platform         Platform     `json:"platform"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Category         string       `json:"category"`
	Status           MarketStatus `json:"status"`
	Probability      float64      `json:"probability"`
	OpenInterest     float64      `json:"open_interest"`
	Volume24h        float64      `json:"volume_24h"`
	VolumeTotal      float64      `json:"volume_total"`
	PriceYes         float64      `json:"price_yes"`
	PriceNo          float64      `json:"price_no"`
	EndDate          *time.Time   `json:"end_date"`
	Change24h        float64      `json:"change_24h"`
	ImageURL         string       `json:"image_url,omitempty"`
	Outcomes         []string     `json:"outcomes"`
	ResolutionSource string       `json:"resolution_source,omitempty"`
}

// MarketSummary is the reduced market shape used in trending and top-N
// responses.
type MarketSummary struct {
	ID           string       `json:"id"`
	Platform     Platform     `json:"platform"`
	Title        string       `json:"title"`
	Category     string       `json:"category"`
	Probability  float64      `json:"probability"`
	OpenInterest float64      `json:"open_interest"`
	Volume24h    float64      `json:"volume_24h"`
	Change24h    float64      `json:"change_24h"`
	Status       MarketStatus `json:"status"`
}

// Summary reduces a Market to its summary shape.
func (m Market) Summary() MarketSummary {
	return MarketSummary{
		ID:           m.ID,
		Platform:     m.Platform,
		Title:        m.Title,
		Category:     m.Category,
		Probability:  m.Probability,
		OpenInterest: m.OpenInterest,
		Volume24h:    m.Volume24h,
		Change24h:    m.Change24h,
		Status:       m.Status,
	}
}

// GlobalStats aggregates totals across the merged record set of a single
// fetch, so the sums always correspond to exactly one cache generation.
type GlobalStats struct {
	TotalMarkets      int       `json:"total_markets"`
	TotalOpenInterest float64   `json:"total_open_interest"`
	TotalVolume24h    float64   `json:"total_volume_24h"`
	ActiveMarkets     int       `json:"active_markets"`
	PolymarketCount   int       `json:"polymarket_count"`
	KalshiCount       int       `json:"kalshi_count"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HistoryPoint is one entry of a market's price history series.
type HistoryPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	PriceYes     float64   `json:"price_yes"`
	PriceNo      float64   `json:"price_no"`
	Probability  float64   `json:"probability"`
	OpenInterest float64   `json:"open_interest"`
	Volume       float64   `json:"volume"`
}

// MarketFilter narrows an aggregated fetch. Zero values mean "no filter".
type MarketFilter struct {
	Platform Platform
	Category string
	Status   MarketStatus
	Limit    int
}
