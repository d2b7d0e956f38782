package analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCheck/internal/collector"
	"StockCheck/internal/fundamentals"
	"StockCheck/internal/inputs"
	"StockCheck/internal/model"
)

func statements() fundamentals.YahooStatements {
	periods := make([]time.Time, 8)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	for i := range periods {
		periods[i] = end.AddDate(0, -3*i, 0)
	}
	row := func(vals ...int64) []decimal.NullDecimal {
		out := make([]decimal.NullDecimal, len(vals))
		for i, v := range vals {
			out[i] = decimal.NewNullDecimal(decimal.NewFromInt(v))
		}
		return out
	}
	return fundamentals.YahooStatements{
		Income: fundamentals.Statement{
			Periods: periods,
			LineItems: map[string][]decimal.NullDecimal{
				"Total Revenue": row(120, 100, 90, 80, 110, 95, 85, 75),
				"Net Income":    row(30, 20, 18, 16, 20, 19, 17, 15),
				"Gross Profit":  row(60, 45, 40, 35, 50, 40, 35, 30),
			},
		},
	}
}

func newAnalyzer(primary *collector.MockFetcher, secondary collector.FundamentalsFetcher) *Analyzer {
	return &Analyzer{
		Prices:   collector.NewCollector(primary),
		Selector: collector.NewSelector(primary, secondary),
		Info:     primary,
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	primary := &collector.MockFetcher{
		Price:      100,
		Statements: statements(),
		Info:       map[string]any{"shortName": "Acme Corp", "returnOnEquity": 0.25},
	}
	a := newAnalyzer(primary, nil)
	store := inputs.NewFileStore(filepath.Join(t.TempDir(), "inputs.json"))
	require.NoError(t, store.Set(inputs.KeyTopRated, "yes"))
	a.Inputs = store

	r, err := a.Analyze(context.Background(), " acme ")
	require.NoError(t, err)
	assert.Equal(t, "ACME", r.Ticker)
	assert.Equal(t, "Acme Corp", r.CompanyName)
	assert.Equal(t, model.SourceYahoo, r.FundamentalSource)
	assert.Equal(t, model.SourceYahoo, r.FundamentalDetails.ROESource)
	assert.InDelta(t, 25.0, r.FundamentalDetails.ROE.Float64, 1e-9)
	assert.Equal(t, []string{"Jun-2024", "Mar-2024", "Dec-2023", "Sep-2023", "Jun-2023", "Mar-2023", "Dec-2022", "Sep-2022"},
		r.FundamentalDetails.QuarterLabels)

	assert.Equal(t, 1.0, r.RemarksScore)
	assert.InDelta(t, r.TechnicalScore+r.FundamentalScore+r.RemarksScore, r.TotalScore, 1e-9)
	assert.InDelta(t, r.TotalScore/model.MaxTotalScore*100, r.Percentage, 1e-9)
	assert.NotEmpty(t, r.Rating.Label)
	assert.Len(t, r.Advisories, 1, "no-credential advisory")
}

func TestAnalyze_SecondaryRateLimitedFallsBack(t *testing.T) {
	primary := &collector.MockFetcher{Price: 100, Statements: statements()}
	secondary := &collector.MockFetcher{
		Src: model.SourceAlphaVantage,
		Err: &collector.ProviderError{Provider: "alphavantage", Kind: collector.ErrRateLimited, Message: "rate limit"},
	}
	a := newAnalyzer(primary, secondary)

	r, err := a.Analyze(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, model.SourceYahoo, r.FundamentalSource)
	require.NotEmpty(t, r.Advisories)
	assert.Contains(t, r.Advisories[0], "rate limit")
	// revenue scenario: acceleration only
	assert.Equal(t, 0.5, r.FundamentalFactors[0].Score)
}

func TestAnalyze_SecondaryROEWins(t *testing.T) {
	primary := &collector.MockFetcher{Price: 100, Statements: statements(), Info: map[string]any{"returnOnEquity": 0.05}}
	a := newAnalyzer(primary, nil)
	a.Ratios = &collector.MockFetcher{ROE: null.FloatFrom(0.31)}

	r, err := a.Analyze(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, model.SourceAlphaVantage, r.FundamentalDetails.ROESource)
	assert.InDelta(t, 31.0, r.FundamentalDetails.ROE.Float64, 1e-9)
}

func TestAnalyze_FundamentalsUnavailableIsNotFatal(t *testing.T) {
	prices := &collector.MockFetcher{Price: 100}
	a := &Analyzer{
		Prices:   collector.NewCollector(prices),
		Selector: collector.NewSelector(&collector.MockFetcher{Err: errors.New("down")}, nil),
	}
	r, err := a.Analyze(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Zero(t, r.FundamentalScore)
	assert.Equal(t, model.SourceNone, r.FundamentalSource)
	found := false
	for _, d := range r.Diagnostics {
		if d.Indicator == "fundamentals" {
			found = true
			assert.Equal(t, model.ReasonTransport, d.Reason)
		}
	}
	assert.True(t, found)
}

func TestAnalyze_PriceHistoryFailureIsFatal(t *testing.T) {
	primary := &collector.MockFetcher{Err: errors.New("connection refused")}
	a := newAnalyzer(primary, nil)
	_, err := a.Analyze(context.Background(), "ACME")
	assert.ErrorIs(t, err, ErrPriceHistory)
}

func TestAnalyze_InvalidTicker(t *testing.T) {
	a := newAnalyzer(&collector.MockFetcher{Price: 1}, nil)
	_, err := a.Analyze(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidTicker)
}

func TestAnalyze_OpenBreakerSkipsSecondaryROE(t *testing.T) {
	primary := &collector.MockFetcher{Price: 100, Statements: statements(), Info: map[string]any{"returnOnEquity": 0.05}}
	secondary := &collector.MockFetcher{
		Src: model.SourceAlphaVantage,
		Err: &collector.ProviderError{Provider: "alphavantage", Kind: collector.ErrTransport, Message: "down"},
	}
	a := newAnalyzer(primary, secondary)
	ratios := &collector.MockFetcher{ROE: null.FloatFrom(0.31)}
	a.Ratios = ratios

	for i := 0; i < 3; i++ {
		a.Selector.Select(context.Background(), "ACME")
	}
	require.Equal(t, gobreaker.StateOpen, a.Selector.BreakerState())

	r, err := a.Analyze(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Zero(t, ratios.Calls, "open breaker must not reach the secondary")
	assert.Equal(t, model.SourceYahoo, r.FundamentalDetails.ROESource)
	assert.InDelta(t, 5.0, r.FundamentalDetails.ROE.Float64, 1e-9)
}
