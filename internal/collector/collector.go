package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	"StockCheck/internal/calculator"
	"StockCheck/internal/fundamentals"
	"StockCheck/internal/model"
)

// HistoryDays is the calendar window of daily bars requested per analysis.
const HistoryDays = 365

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price      float64
	DailyData  []model.OHLCV
	Statements fundamentals.Payload
	Info       map[string]any
	ROE        null.Float
	Err        error
	Src        model.Source
	Calls      int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Source() model.Source {
	if m.Src == "" {
		return model.SourceYahoo
	}
	return m.Src
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days*252/365), nil
}

func (m *MockFetcher) FetchFundamentals(_ context.Context, _ string) (fundamentals.Payload, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Statements == nil {
		return nil, providerErr("mock", ErrNoData, "no statements")
	}
	return m.Statements, nil
}

func (m *MockFetcher) FetchStatements(ctx context.Context, symbol string) (fundamentals.YahooStatements, error) {
	p, err := m.FetchFundamentals(ctx, symbol)
	if err != nil {
		return fundamentals.YahooStatements{}, err
	}
	st, ok := p.(fundamentals.YahooStatements)
	if !ok {
		return fundamentals.YahooStatements{}, providerErr("mock", ErrNoData, "not a statement payload")
	}
	return st, nil
}

func (m *MockFetcher) FetchCompanyInfo(_ context.Context, _ string) (map[string]any, error) {
	if m.Info == nil {
		return nil, providerErr("mock", ErrNoData, "no info")
	}
	return m.Info, nil
}

func (m *MockFetcher) FetchReturnOnEquity(_ context.Context, _ string) (null.Float, error) {
	m.Calls++
	if !m.ROE.Valid {
		return null.Float{}, providerErr("mock", ErrNoData, "no ROE")
	}
	return m.ROE, nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches price history and computes the technical indicators.
type Collector struct {
	Fetcher PriceFetcher
	Timeout time.Duration
}

// NewCollector creates a new Collector.
func NewCollector(fetcher PriceFetcher) *Collector {
	return &Collector{Fetcher: fetcher, Timeout: DefaultPrimaryTimeout}
}

// Collect fetches daily bars for symbol and computes all technical indicators.
// Detector shortfalls degrade to a reason code; only a failed fetch is an error.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, model.TechnicalIndicators, error) {
	var ind model.TechnicalIndicators

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultPrimaryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, HistoryDays)
	if err != nil {
		return nil, ind, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, ind, fmt.Errorf("fetch daily bars: %w", providerErr(c.Fetcher.Name(), ErrNoData, "empty history for "+symbol))
	}
	series := &model.PriceSeries{Symbol: symbol, DailyBars: bars, FetchedAt: time.Now()}
	ind.Bars = len(bars)

	if s, err := calculator.CalculatePriceSummary(bars); err != nil {
		log.Warn().Err(err).Str("ticker", symbol).Msg("price summary calculation failed")
	} else {
		ind.Summary = s
	}

	ind.Stage = calculator.EvaluateStage(bars)
	if ind.Stage.Reason != model.ReasonNone {
		log.Warn().Str("ticker", symbol).Int("bars", len(bars)).Str("reason", string(ind.Stage.Reason)).
			Msg("stage analysis degraded")
	}

	ind.KeyBar = calculator.DetectKeyBar(bars)
	if ind.KeyBar.Reason != model.ReasonNone {
		log.Warn().Str("ticker", symbol).Int("bars", len(bars)).Str("reason", string(ind.KeyBar.Reason)).
			Msg("key bar analysis degraded")
	}

	return series, ind, nil
}
