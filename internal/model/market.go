package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds raw price data for analysis.
type PriceSeries struct {
	Symbol    string
	DailyBars []OHLCV
	FetchedAt time.Time
}

// LastClose returns the close of the most recent bar, or 0 when empty.
func (p *PriceSeries) LastClose() float64 {
	if len(p.DailyBars) == 0 {
		return 0
	}
	return p.DailyBars[len(p.DailyBars)-1].Close
}
