package calculator

import (
	"errors"
	"math"

	"StockCheck/internal/model"
)

// Calculate52WeekRange scans the most recent 252 trading days and returns the high and low.
func Calculate52WeekRange(dailyBars []model.OHLCV) (high, low float64, err error) {
	if len(dailyBars) == 0 {
		return 0, 0, errors.New("no daily bars provided")
	}
	n := len(dailyBars)
	start := n - 252
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if dailyBars[i].High > high {
			high = dailyBars[i].High
		}
		if dailyBars[i].Low < low {
			low = dailyBars[i].Low
		}
	}
	return high, low, nil
}

// CalculatePriceSummary returns the last close, the change from the prior close,
// the last volume and the 52-week range.
func CalculatePriceSummary(dailyBars []model.OHLCV) (model.PriceSummary, error) {
	if len(dailyBars) == 0 {
		return model.PriceSummary{}, errors.New("no daily bars provided")
	}
	last := dailyBars[len(dailyBars)-1]
	summary := model.PriceSummary{Current: last.Close, Volume: last.Volume}

	if len(dailyBars) >= 2 {
		prev := dailyBars[len(dailyBars)-2].Close
		summary.Change = last.Close - prev
		if prev != 0 {
			summary.ChangePct = summary.Change / prev * 100
		}
	}

	high, low, err := Calculate52WeekRange(dailyBars)
	if err != nil {
		return summary, err
	}
	summary.High52w = high
	summary.Low52w = low
	return summary, nil
}
