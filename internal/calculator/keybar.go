package calculator

import (
	"math"

	"StockCheck/internal/model"
)

const (
	// KeyBarMinBars is the history required for the 30-bar volume average.
	KeyBarMinBars      = 30
	keyBarVolumeWindow = 30
	keyBarHighLookback = 5
	keyBarScanWindow   = 10
	keyBarMinMovePct   = 1.5
	keyBarMaxRunUp     = 1.05
)

// FlagKeyBars marks each bar that has above-average volume, a body move over
// 1.5% and a high above the previous five highs.
func FlagKeyBars(dailyBars []model.OHLCV) []bool {
	flags := make([]bool, len(dailyBars))
	avgVolume, ready := RollingMean(extractVolumes(dailyBars), keyBarVolumeWindow)

	for i, bar := range dailyBars {
		if !ready[i] || i < keyBarHighLookback || bar.Open == 0 {
			continue
		}
		if !(bar.Volume > avgVolume[i]) {
			continue
		}
		if math.Abs((bar.Close-bar.Open)/bar.Open*100) <= keyBarMinMovePct {
			continue
		}
		prevHigh := math.Inf(-1)
		for j := i - keyBarHighLookback; j < i; j++ {
			prevHigh = math.Max(prevHigh, dailyBars[j].High)
		}
		flags[i] = bar.High > prevHigh
	}
	return flags
}

// DetectKeyBar finds the latest key bar among the last ten bars and scores it:
// 0.5 for a key bar, plus 0.5 when the last close is at most 5% above its close.
func DetectKeyBar(dailyBars []model.OHLCV) model.KeyBarResult {
	if len(dailyBars) < KeyBarMinBars {
		return model.KeyBarResult{Reason: model.ReasonInsufficientHistory}
	}

	flags := FlagKeyBars(dailyBars)
	res := model.KeyBarResult{CurrentClose: dailyBars[len(dailyBars)-1].Close}
	for i, flagged := range flags {
		if flagged {
			res.Flagged = append(res.Flagged, dailyBars[i])
		}
	}

	start := len(dailyBars) - keyBarScanWindow
	for i := len(dailyBars) - 1; i >= start; i-- {
		if flags[i] {
			res.Found = true
			res.Bar = dailyBars[i]
			break
		}
	}
	if !res.Found {
		return res
	}

	res.Score = 0.5
	if res.CurrentClose <= res.Bar.Close*keyBarMaxRunUp {
		res.NearSignal = true
		res.Score += 0.5
	}
	return res
}
