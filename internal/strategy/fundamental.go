package strategy

import (
	"fmt"

	"github.com/guregu/null/v6"

	"StockCheck/internal/calculator"
	"StockCheck/internal/model"
)

// Factor names for the fundamental category.
const (
	FactorSalesGrowth    = "Sales Growth"
	FactorGrossMargin    = "Gross Margin"
	FactorEarningsGrowth = "Earnings Growth"
	FactorRuleOf40       = "Rule of 40"
	FactorROE            = "Return on Equity"
)

// ReportedROE is a trailing ROE already resolved from a provider, in percent.
type ReportedROE struct {
	Value  null.Float
	Source model.Source
}

// AnalyzeFundamentals computes the growth, margin and ROE series behind the scores.
// When reported ROE is unknown the latest annualized quarterly ROE is used.
func AnalyzeFundamentals(series model.QuarterSeries, roe ReportedROE) model.FundamentalDetails {
	display := min(len(series), model.DisplayQuarters)
	revenue := series.Revenues()
	d := model.FundamentalDetails{
		QuarterLabels:     series.Labels(display),
		QuartersAvailable: len(series),
		Revenue:           revenue[:display],
		NetIncome:         series.NetIncomes()[:display],
		SalesGrowth:       calculator.YoYGrowth(revenue),
		EarningsGrowth:    calculator.YoYGrowth(series.NetIncomes()),
		GrossMargins:      calculator.GrossMargins(revenue, series.GrossProfits(), model.DisplayQuarters),
		ROEQuarters:       calculator.AnnualizedROE(series.NetIncomes(), series.Equities(), 4),
	}
	d.LatestRevenueGrowth = calculator.First(d.SalesGrowth)
	d.LatestGrossMargin = calculator.First(d.GrossMargins)
	if d.LatestRevenueGrowth.Valid {
		margin, basis := d.LatestGrossMargin, "gross"
		if !margin.Valid {
			margin, basis = calculator.First(calculator.GrossMargins(revenue, series.EBITDAs(), 1)), "EBITDA"
		}
		if margin.Valid {
			d.RuleOf40 = null.FloatFrom(d.LatestRevenueGrowth.Float64 + margin.Float64)
			d.RuleOf40Basis = basis
		}
	}

	switch {
	case roe.Value.Valid:
		d.ROE = roe.Value
		d.ROESource = roe.Source
	case calculator.First(d.ROEQuarters).Valid:
		d.ROE = d.ROEQuarters[0]
		d.ROESource = model.SourceDerived
	default:
		d.ROESource = model.SourceNone
	}
	return d
}

// EvaluateFundamentals scores the five fundamental indicators independently.
// A missing input zeroes only its own indicator.
func EvaluateFundamentals(d model.FundamentalDetails, source model.Source) []model.FactorScore {
	return []model.FactorScore{
		scoreSalesGrowth(d, source),
		scoreGrossMargin(d, source),
		scoreEarningsGrowth(d, source),
		scoreRuleOf40(d, source),
		scoreROE(d),
	}
}

func growthReason(d model.FundamentalDetails, growth []null.Float) model.Reason {
	if d.QuartersAvailable == 0 {
		return model.ReasonDataUnavailable
	}
	if len(growth) == 0 {
		return model.ReasonInsufficientHistory
	}
	return model.ReasonDataUnavailable
}

// scoreSalesGrowth: >30% YoY scores 1; otherwise 0.5 each for acceleration and >15%.
func scoreSalesGrowth(d model.FundamentalDetails, source model.Source) model.FactorScore {
	f := model.FactorScore{Name: FactorSalesGrowth, Max: 1, Source: source}
	latest := calculator.First(d.SalesGrowth)
	if !latest.Valid {
		f.Reason = growthReason(d, d.SalesGrowth)
		f.Commentary = "no YoY revenue growth"
		return f
	}
	accel := calculator.Accelerating(d.SalesGrowth)
	switch {
	case latest.Float64 > 30:
		f.Score = 1
	default:
		if accel {
			f.Score += 0.5
		}
		if latest.Float64 > 15 {
			f.Score += 0.5
		}
	}
	f.Commentary = fmt.Sprintf("YoY %+.1f%%%s", latest.Float64, accelNote(accel))
	return f
}

// scoreGrossMargin: 0.5 for an expanding margin, 0.5 for a margin above 40%.
func scoreGrossMargin(d model.FundamentalDetails, source model.Source) model.FactorScore {
	f := model.FactorScore{Name: FactorGrossMargin, Max: 1, Source: source}
	latest := calculator.First(d.GrossMargins)
	if !latest.Valid {
		f.Reason = model.ReasonDataUnavailable
		f.Commentary = "no gross margin"
		return f
	}
	expanding := len(d.GrossMargins) > 1 && d.GrossMargins[1].Valid && latest.Float64 > d.GrossMargins[1].Float64
	if expanding {
		f.Score += 0.5
	}
	if latest.Float64 > 40 {
		f.Score += 0.5
	}
	f.Commentary = fmt.Sprintf("margin %.1f%%", latest.Float64)
	if expanding {
		f.Commentary += ", expanding"
	}
	return f
}

// scoreEarningsGrowth: 0.5 for acceleration, 0.5 for >20% YoY.
func scoreEarningsGrowth(d model.FundamentalDetails, source model.Source) model.FactorScore {
	f := model.FactorScore{Name: FactorEarningsGrowth, Max: 1, Source: source}
	latest := calculator.First(d.EarningsGrowth)
	if !latest.Valid {
		f.Reason = growthReason(d, d.EarningsGrowth)
		f.Commentary = "no YoY earnings growth"
		return f
	}
	accel := calculator.Accelerating(d.EarningsGrowth)
	if accel {
		f.Score += 0.5
	}
	if latest.Float64 > 20 {
		f.Score += 0.5
	}
	f.Commentary = fmt.Sprintf("YoY %+.1f%%%s", latest.Float64, accelNote(accel))
	return f
}

func scoreRuleOf40(d model.FundamentalDetails, source model.Source) model.FactorScore {
	f := model.FactorScore{Name: FactorRuleOf40, Max: 1, Source: source}
	if !d.RuleOf40.Valid {
		f.Reason = growthReason(d, d.SalesGrowth)
		if d.LatestRevenueGrowth.Valid {
			f.Reason = model.ReasonDataUnavailable
		}
		f.Commentary = "growth or margin unknown"
		return f
	}
	if d.RuleOf40.Float64 >= 40 {
		f.Score = 1
	}
	f.Commentary = fmt.Sprintf("%.1f (growth %+.1f%% + %s margin %.1f%%)",
		d.RuleOf40.Float64, d.LatestRevenueGrowth.Float64, d.RuleOf40Basis, d.RuleOf40.Float64-d.LatestRevenueGrowth.Float64)
	return f
}

func scoreROE(d model.FundamentalDetails) model.FactorScore {
	f := model.FactorScore{Name: FactorROE, Max: 1, Source: d.ROESource}
	if !d.ROE.Valid {
		f.Reason = model.ReasonDataUnavailable
		f.Source = model.SourceNone
		f.Commentary = "ROE unknown"
		return f
	}
	if d.ROE.Float64 >= 15 {
		f.Score = 1
	}
	f.Commentary = fmt.Sprintf("ROE %.1f%%", d.ROE.Float64)
	return f
}

func accelNote(accel bool) string {
	if accel {
		return ", accelerating"
	}
	return ""
}
