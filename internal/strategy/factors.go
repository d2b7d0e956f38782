package strategy

import (
	"fmt"

	"StockCheck/internal/model"
)

// Factor names for the technical and remarks categories.
const (
	FactorStage          = "Stage Analysis"
	FactorMarketPulse    = "Market Pulse"
	FactorATR            = "ATR Percentile"
	FactorAccumulation   = "Accumulation/Distribution"
	FactorInsider        = "Insider Activity"
	FactorKeyBar         = "Key Bar"
	FactorTopRated       = "Top Rated Group"
	FactorNewDevelopment = "New Development"
)

// EvaluateTechnical scores the six technical indicators. Each is capped at 1.
func EvaluateTechnical(ind model.TechnicalIndicators, in model.QualitativeInputs) []model.FactorScore {
	return []model.FactorScore{
		scoreStage(ind.Stage),
		scoreMarketPulse(in.MarketPulse),
		scoreATRPercentile(in.ATRPercentile),
		scoreBinaryInput(FactorAccumulation, in.AccumulationDistribution),
		scoreBinaryInput(FactorInsider, in.InsiderActivity),
		scoreKeyBar(ind.KeyBar),
	}
}

// EvaluateRemarks scores the two qualitative remarks.
func EvaluateRemarks(in model.QualitativeInputs) []model.FactorScore {
	return []model.FactorScore{
		scoreFlag(FactorTopRated, in.TopRatedGroup),
		scoreFlag(FactorNewDevelopment, in.NewDevelopment),
	}
}

func scoreStage(s model.StageResult) model.FactorScore {
	f := model.FactorScore{Name: FactorStage, Max: 1, Source: model.SourceComputed, Score: s.Score, Reason: s.Reason}
	switch {
	case s.Reason == model.ReasonInsufficientHistory:
		f.Commentary = "needs 200 daily bars"
	case s.Stage == model.StageError:
		f.Commentary = "moving averages not computable"
	default:
		f.Commentary = fmt.Sprintf("%s (P %.2f, MA50 %.2f, MA150 %.2f, MA200 %.2f)", s.Stage, s.Price, s.MA50, s.MA150, s.MA200)
	}
	return f
}

// scoreMarketPulse: Green scores 1, Grey Strong 0.5, anything else 0.
func scoreMarketPulse(p model.MarketPulse) model.FactorScore {
	f := model.FactorScore{Name: FactorMarketPulse, Max: 1, Source: model.SourceUser, Commentary: string(p)}
	switch p {
	case model.PulseGreen:
		f.Score = 1
	case model.PulseGreyStrong:
		f.Score = 0.5
	case model.PulseGreyWeak, model.PulseRed:
	default:
		f.Reason = model.ReasonInvalidInput
	}
	return f
}

func scoreATRPercentile(pct int) model.FactorScore {
	f := model.FactorScore{Name: FactorATR, Max: 1, Source: model.SourceUser, Commentary: fmt.Sprintf("%d", pct)}
	if pct < 0 || pct > 100 {
		f.Reason = model.ReasonInvalidInput
		return f
	}
	if pct > 50 {
		f.Score = 1
	}
	return f
}

func scoreBinaryInput(name string, v int) model.FactorScore {
	f := model.FactorScore{Name: name, Max: 1, Source: model.SourceUser, Commentary: fmt.Sprintf("%d", v)}
	switch v {
	case 0:
	case 1:
		f.Score = 1
	default:
		f.Reason = model.ReasonInvalidInput
	}
	return f
}

func scoreFlag(name string, v bool) model.FactorScore {
	f := model.FactorScore{Name: name, Max: 1, Source: model.SourceUser, Commentary: "no"}
	if v {
		f.Score = 1
		f.Commentary = "yes"
	}
	return f
}

// scoreKeyBar: 0.5 for a recent key bar, 1 when price is still within 5% of it.
func scoreKeyBar(k model.KeyBarResult) model.FactorScore {
	f := model.FactorScore{Name: FactorKeyBar, Max: 1, Source: model.SourceComputed, Score: k.Score, Reason: k.Reason}
	switch {
	case k.Reason == model.ReasonInsufficientHistory:
		f.Commentary = "needs 30 daily bars"
	case !k.Found:
		f.Commentary = "none in the last 10 bars"
	case k.NearSignal:
		f.Commentary = fmt.Sprintf("%s close %.2f, price within 5%%", k.Bar.Time.Format("2006-01-02"), k.Bar.Close)
	default:
		f.Commentary = fmt.Sprintf("%s close %.2f, price extended", k.Bar.Time.Format("2006-01-02"), k.Bar.Close)
	}
	return f
}
