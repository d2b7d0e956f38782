package strategy

import (
	"math"
	"time"

	"StockCheck/internal/model"
)

// Ratings maps the total percentage to a band, highest first.
var Ratings = []struct {
	MinPercent float64
	Rating     model.Rating
}{
	{75, model.Rating{Label: "Excellent", Stars: 5}},
	{60, model.Rating{Label: "Good", Stars: 4}},
	{45, model.Rating{Label: "Average", Stars: 3}},
	{30, model.Rating{Label: "Below Average", Stars: 2}},
}

// DefaultRating applies below the lowest band.
var DefaultRating = model.Rating{Label: "Poor", Stars: 1}

func mapRating(percentage float64) model.Rating {
	for _, r := range Ratings {
		if percentage >= r.MinPercent {
			return r.Rating
		}
	}
	return DefaultRating
}

// Input is everything the engine needs for one ticker.
type Input struct {
	Ticker            string
	CompanyName       string
	Technical         model.TechnicalIndicators
	Qualitative       model.QualitativeInputs
	Quarters          model.QuarterSeries
	FundamentalSource model.Source
	ROE               ReportedROE
	Advisories        []string
	Diagnostics       []model.Diagnostic
}

// Evaluate scores all categories and aggregates them into a report.
func Evaluate(in Input) *model.ScoreReport {
	details := AnalyzeFundamentals(in.Quarters, in.ROE)
	source := in.FundamentalSource
	if len(in.Quarters) == 0 {
		source = model.SourceNone
	}

	r := &model.ScoreReport{
		Ticker:             in.Ticker,
		CompanyName:        in.CompanyName,
		GeneratedAt:        time.Now(),
		Price:              in.Technical.Summary,
		Technical:          in.Technical,
		Inputs:             in.Qualitative,
		TechnicalFactors:   EvaluateTechnical(in.Technical, in.Qualitative),
		FundamentalFactors: EvaluateFundamentals(details, source),
		RemarkFactors:      EvaluateRemarks(in.Qualitative),
		FundamentalSource:  source,
		FundamentalDetails: details,
		Advisories:         in.Advisories,
		Diagnostics:        append([]model.Diagnostic(nil), in.Diagnostics...),
	}

	r.TechnicalScore = clamp(model.SumScores(r.TechnicalFactors), 0, model.MaxTechnicalScore)
	r.FundamentalScore = clamp(model.SumScores(r.FundamentalFactors), 0, model.MaxFundamentalScore)
	r.RemarksScore = clamp(model.SumScores(r.RemarkFactors), 0, model.MaxRemarksScore)
	r.TotalScore = r.TechnicalScore + r.FundamentalScore + r.RemarksScore
	r.Percentage = clamp(r.TotalScore/model.MaxTotalScore*100, 0, 100)
	r.Rating = mapRating(r.Percentage)

	for _, group := range [][]model.FactorScore{r.TechnicalFactors, r.FundamentalFactors, r.RemarkFactors} {
		for _, f := range group {
			if f.Reason != model.ReasonNone {
				r.Diagnostics = append(r.Diagnostics, model.Diagnostic{Indicator: f.Name, Reason: f.Reason, Detail: f.Commentary})
			}
		}
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
