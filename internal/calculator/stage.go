package calculator

import (
	"math"

	"StockCheck/internal/model"
)

// StageMinBars is the history required for the 200-bar average.
const StageMinBars = 200

// ClassifyStage maps price and the 50/150/200 averages to a stage and score.
// Any NaN or infinite input yields StageError.
func ClassifyStage(price, ma50, ma150, ma200 float64) (model.Stage, float64) {
	for _, v := range []float64{price, ma50, ma150, ma200} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return model.StageError, 0
		}
	}
	switch {
	case price > ma50 && ma50 > ma150 && ma150 > ma200:
		return model.Stage2, 1.0
	case price > ma50 && ma50 > ma150 && ma150 < ma200:
		return model.Stage1, 0.5
	case price > ma50 && ma50 < ma150 && ma150 > ma200:
		return model.Stage3Strong, 0.5
	default:
		return model.StageOther, 0
	}
}

// EvaluateStage computes the moving averages from daily bars and classifies the stage.
func EvaluateStage(dailyBars []model.OHLCV) model.StageResult {
	if len(dailyBars) < StageMinBars {
		return model.StageResult{Stage: model.StageOther, Reason: model.ReasonInsufficientHistory}
	}
	closes := extractCloses(dailyBars)
	res := model.StageResult{Price: closes[len(closes)-1]}

	var err error
	if res.MA50, err = CalculateSMA(closes, 50); err != nil {
		return model.StageResult{Stage: model.StageError, Reason: model.ReasonInsufficientHistory}
	}
	if res.MA150, err = CalculateSMA(closes, 150); err != nil {
		return model.StageResult{Stage: model.StageError, Reason: model.ReasonInsufficientHistory}
	}
	if res.MA200, err = CalculateSMA(closes, 200); err != nil {
		return model.StageResult{Stage: model.StageError, Reason: model.ReasonInsufficientHistory}
	}

	res.Stage, res.Score = ClassifyStage(res.Price, res.MA50, res.MA150, res.MA200)
	if res.Stage == model.StageError {
		res.Reason = model.ReasonMalformedField
	}
	return res
}
