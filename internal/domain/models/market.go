package models

import "time"

// Quote is a realtime snapshot for one instrument, normalized across
// providers.
type Quote struct {
	Symbol    string     `json:"symbol"`
	Market    Market     `json:"market"`
	Name      string     `json:"name,omitempty"`
	Price     float64    `json:"price"`
	Open      float64    `json:"open"`
	High      float64    `json:"high"`
	Low       float64    `json:"low"`
	PrevClose float64    `json:"prev_close"`
	ChangePct float64    `json:"change_pct"`
	Volume    float64    `json:"volume"`
	Turnover  float64    `json:"turnover"`
	Source    ProviderID `json:"source"`
	Timestamp time.Time  `json:"timestamp"`
}

// Candle is one OHLCV bar of daily history.
type Candle struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Turnover float64   `json:"turnover,omitempty"`
}

// DateRange bounds a history request, inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ChipBucket is one price level of a chip distribution.
type ChipBucket struct {
	Price  float64 `json:"price"`
	Weight float64 `json:"weight"`
}

// ChipDistribution describes where a stock's float is held by cost basis.
// Only meaningful for A-shares.
type ChipDistribution struct {
	Symbol        string       `json:"symbol"`
	Date          time.Time    `json:"date"`
	Buckets       []ChipBucket `json:"buckets"`
	AvgCost       float64      `json:"avg_cost"`
	Concentration float64      `json:"concentration_90"`
	ProfitRatio   float64      `json:"profit_ratio"`
	Source        ProviderID   `json:"source"`
}

// NewsItem is one headline attached to an instrument.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
