package model

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

const (
	// MaxQuarters is the number of quarters kept so that eight YoY points can be computed.
	MaxQuarters = 12
	// DisplayQuarters is the number of quarters surfaced in reports.
	DisplayQuarters = 8
)

// Source names the provider that backed a value.
type Source string

const (
	SourceAlphaVantage Source = "Alpha Vantage"
	SourceYahoo        Source = "Yahoo Finance"
	SourceDerived      Source = "Yahoo Finance (derived from statements)"
	SourceUser         Source = "User input"
	SourceComputed     Source = "Price history"
	SourceNone         Source = "Not available"
)

// QuarterRecord is one fiscal quarter of canonical financial values.
type QuarterRecord struct {
	PeriodEnd          time.Time           `json:"period_end"`
	Revenue            decimal.NullDecimal `json:"revenue"`
	NetIncome          decimal.NullDecimal `json:"net_income"`
	GrossProfit        decimal.NullDecimal `json:"gross_profit"`
	StockholdersEquity decimal.NullDecimal `json:"stockholders_equity"`
	EBITDA             decimal.NullDecimal `json:"ebitda"`
}

// QuarterSeries is ordered most-recent-first.
type QuarterSeries []QuarterRecord

func (s QuarterSeries) column(pick func(QuarterRecord) decimal.NullDecimal) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(s))
	for i, q := range s {
		out[i] = pick(q)
	}
	return out
}

func (s QuarterSeries) Revenues() []decimal.NullDecimal {
	return s.column(func(q QuarterRecord) decimal.NullDecimal { return q.Revenue })
}

func (s QuarterSeries) NetIncomes() []decimal.NullDecimal {
	return s.column(func(q QuarterRecord) decimal.NullDecimal { return q.NetIncome })
}

func (s QuarterSeries) GrossProfits() []decimal.NullDecimal {
	return s.column(func(q QuarterRecord) decimal.NullDecimal { return q.GrossProfit })
}

func (s QuarterSeries) Equities() []decimal.NullDecimal {
	return s.column(func(q QuarterRecord) decimal.NullDecimal { return q.StockholdersEquity })
}

func (s QuarterSeries) EBITDAs() []decimal.NullDecimal {
	return s.column(func(q QuarterRecord) decimal.NullDecimal { return q.EBITDA })
}

// Labels renders period ends as "Jan-2006" for the first n quarters.
func (s QuarterSeries) Labels(n int) []string {
	if n > len(s) {
		n = len(s)
	}
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		if s[i].PeriodEnd.IsZero() {
			labels[i] = "n/a"
			continue
		}
		labels[i] = s[i].PeriodEnd.Format("Jan-2006")
	}
	return labels
}

// FundamentalDetails carries the intermediate series behind the fundamental scores.
type FundamentalDetails struct {
	QuarterLabels       []string
	QuartersAvailable   int
	Revenue             []decimal.NullDecimal
	NetIncome           []decimal.NullDecimal
	SalesGrowth         []null.Float
	EarningsGrowth      []null.Float
	GrossMargins        []null.Float
	LatestRevenueGrowth null.Float
	LatestGrossMargin   null.Float
	RuleOf40            null.Float
	RuleOf40Basis       string // "gross" or "EBITDA", the margin used in RuleOf40
	ROE                 null.Float
	ROEQuarters         []null.Float
	ROESource           Source
}
