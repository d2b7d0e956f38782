package calculator

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

const (
	// MinGrowthPoints is the shortest series that yields one YoY value.
	MinGrowthPoints = 5
	// MaxGrowthPoints caps the YoY series length.
	MaxGrowthPoints = 8
	yearLag         = 4
)

var hundred = decimal.NewFromInt(100)

// YoYGrowth computes year-over-year growth in percent for a most-recent-first
// quarterly series. Entry i compares quarter i with quarter i+4 and is null when
// either value is missing or zero. Returns nil for fewer than MinGrowthPoints values.
func YoYGrowth(series []decimal.NullDecimal) []null.Float {
	if len(series) < MinGrowthPoints {
		return nil
	}
	n := len(series) - yearLag
	if n > MaxGrowthPoints {
		n = MaxGrowthPoints
	}
	growth := make([]null.Float, n)
	for i := 0; i < n; i++ {
		current, prior := series[i], series[i+yearLag]
		if !current.Valid || !prior.Valid || current.Decimal.IsZero() || prior.Decimal.IsZero() {
			continue
		}
		pct := current.Decimal.Sub(prior.Decimal).Div(prior.Decimal.Abs()).Mul(hundred)
		growth[i] = null.FloatFrom(pct.InexactFloat64())
	}
	return growth
}

// Accelerating reports whether the latest YoY value exceeds the previous one.
// Unknown values never count as acceleration.
func Accelerating(growth []null.Float) bool {
	if len(growth) < 2 || !growth[0].Valid || !growth[1].Valid {
		return false
	}
	return growth[0].Float64 > growth[1].Float64
}

// GrossMargins returns gross profit over revenue in percent for up to limit quarters.
func GrossMargins(revenue, grossProfit []decimal.NullDecimal, limit int) []null.Float {
	n := min(len(revenue), len(grossProfit), limit)
	if n < 0 {
		n = 0
	}
	margins := make([]null.Float, n)
	for i := 0; i < n; i++ {
		rev, gp := revenue[i], grossProfit[i]
		if !rev.Valid || !gp.Valid || rev.Decimal.IsZero() {
			continue
		}
		margins[i] = null.FloatFrom(gp.Decimal.Div(rev.Decimal).Mul(hundred).InexactFloat64())
	}
	return margins
}

// AnnualizedROE returns net income x4 over stockholders' equity in percent for up to limit quarters.
func AnnualizedROE(netIncome, equity []decimal.NullDecimal, limit int) []null.Float {
	n := min(len(netIncome), len(equity), limit)
	if n < 0 {
		n = 0
	}
	roe := make([]null.Float, n)
	four := decimal.NewFromInt(4)
	for i := 0; i < n; i++ {
		ni, eq := netIncome[i], equity[i]
		if !ni.Valid || !eq.Valid || eq.Decimal.IsZero() {
			continue
		}
		roe[i] = null.FloatFrom(ni.Decimal.Mul(four).Div(eq.Decimal).Mul(hundred).InexactFloat64())
	}
	return roe
}

// First returns the first entry of a series, or null when empty.
func First(series []null.Float) null.Float {
	if len(series) == 0 {
		return null.Float{}
	}
	return series[0]
}
