package domain

// TraderPosition is a single open position held by a smart trader.
type TraderPosition struct {
	MarketID   string  `json:"market_id"`
	Side       string  `json:"side"` // "yes" or "no"
	Size       float64 `json:"size"`
	Value      float64 `json:"value"`
	EntryPrice float64 `json:"entry_price"`
}

// SmartTrader is a tracked high-performing wallet.
type SmartTrader struct {
	ID         string           `json:"id"`
	Address    string           `json:"address"`
	TotalValue float64          `json:"total_value"`
	PnL        float64          `json:"pnl"`
	WinRate    float64          `json:"win_rate"`
	TradeCount int              `json:"trade_count"`
	Positions  []TraderPosition `json:"positions"`
}

// TraderSummary is the reduced trader shape used in list responses.
type TraderSummary struct {
	ID            string  `json:"id"`
	Address       string  `json:"address"`
	TotalValue    float64 `json:"total_value"`
	PnL           float64 `json:"pnl"`
	WinRate       float64 `json:"win_rate"`
	TradeCount    int     `json:"trade_count"`
	PositionCount int     `json:"position_count"`
}

// TraderStats aggregates the tracked trader set.
type TraderStats struct {
	TotalTraders   int     `json:"total_traders"`
	TotalValue     float64 `json:"total_value"`
	TotalPnL       float64 `json:"total_pnl"`
	AverageWinRate float64 `json:"average_win_rate"`
	TopPerformer   string  `json:"top_performer"`
	UpdatedAt      string  `json:"updated_at"`
}

// Summary reduces a SmartTrader to its list shape.
func (t SmartTrader) Summary() TraderSummary {
	return TraderSummary{
		ID:            t.ID,
		Address:       t.Address,
		TotalValue:    t.TotalValue,
		PnL:           t.PnL,
		WinRate:       t.WinRate,
		TradeCount:    t.TradeCount,
		PositionCount: len(t.Positions),
	}
}
