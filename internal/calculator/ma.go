package calculator

import (
	"errors"

	"StockCheck/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateCloseSMA returns the simple moving average of closing prices over period bars.
func CalculateCloseSMA(dailyBars []model.OHLCV, period int) (float64, error) {
	return CalculateSMA(extractCloses(dailyBars), period)
}

// RollingMean returns the trailing mean of values ending at each index, inclusive.
// Entries before the first full window are zero with ok=false.
func RollingMean(values []float64, window int) (means []float64, ok []bool) {
	means = make([]float64, len(values))
	ok = make([]bool, len(values))
	if window <= 0 {
		return means, ok
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			means[i] = sum / float64(window)
			ok[i] = true
		}
	}
	return means, ok
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	return volumes
}
