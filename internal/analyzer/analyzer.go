// Package analyzer runs one single-ticker analysis end to end.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	"StockCheck/internal/collector"
	"StockCheck/internal/fundamentals"
	"StockCheck/internal/inputs"
	"StockCheck/internal/metrics"
	"StockCheck/internal/model"
	"StockCheck/internal/strategy"
)

// ErrPriceHistory means no usable price history could be loaded. It is the
// only failure that aborts an analysis.
var ErrPriceHistory = errors.New("price history unavailable")

// ErrInvalidTicker is returned for an empty or malformed ticker.
var ErrInvalidTicker = errors.New("invalid ticker")

// Analyzer holds the collaborators for an analysis. It keeps no per-request state.
type Analyzer struct {
	Prices   *collector.Collector
	Selector *collector.Selector
	Info     collector.InfoFetcher  // primary company-info map
	Ratios   collector.RatioFetcher // nil without a secondary credential
	Inputs   inputs.Reader
	Metrics  *metrics.Registry

	// InfoTimeout bounds each supplementary lookup.
	InfoTimeout time.Duration
}

// Analyze produces a fresh report for ticker. Nothing is persisted.
func (a *Analyzer) Analyze(ctx context.Context, ticker string) (report *model.ScoreReport, err error) {
	start := time.Now()
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	defer func() {
		var score float64
		if report != nil {
			score = report.TotalScore
		}
		a.Metrics.ObserveAnalysis(ticker, score, time.Since(start), err)
	}()

	if ticker == "" || strings.ContainsAny(ticker, " /?#&") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	logger := log.With().Str("ticker", ticker).Logger()

	_, technical, err := a.Prices.Collect(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPriceHistory, err)
	}

	qualitative := model.DefaultInputs()
	var diags []model.Diagnostic
	if a.Inputs != nil {
		if qualitative, err = a.Inputs.Load(); err != nil {
			logger.Warn().Err(err).Msg("qualitative inputs unreadable, using defaults")
			qualitative = model.DefaultInputs()
			diags = append(diags, model.Diagnostic{Indicator: "inputs", Reason: model.ReasonInvalidInput, Detail: err.Error()})
		}
	}

	sel := a.Selector.Select(ctx, ticker)
	advisories := append([]string(nil), sel.Advisories...)
	var quarters model.QuarterSeries
	if sel.Err != nil {
		logger.Warn().Err(sel.Err).Msg("fundamentals unavailable")
		diags = append(diags, model.Diagnostic{Indicator: "fundamentals", Reason: collector.ReasonFor(sel.Err), Detail: sel.Err.Error()})
	} else {
		var extractDiags []model.Diagnostic
		quarters, extractDiags = fundamentals.Extract(sel.Payload)
		diags = append(diags, extractDiags...)
		logger.Info().Str("source", string(sel.Source)).Int("quarters", len(quarters)).Msg("fundamentals extracted")
	}

	info := a.companyInfo(ctx, ticker)
	roe := a.reportedROE(ctx, ticker, info)

	report = strategy.Evaluate(strategy.Input{
		Ticker:            ticker,
		CompanyName:       collector.InfoString(info, "shortName"),
		Technical:         technical,
		Qualitative:       qualitative,
		Quarters:          quarters,
		FundamentalSource: sel.Source,
		ROE:               roe,
		Advisories:        advisories,
		Diagnostics:       diags,
	})

	logger.Info().
		Float64("technical", report.TechnicalScore).
		Float64("fundamental", report.FundamentalScore).
		Float64("remarks", report.RemarksScore).
		Float64("total", report.TotalScore).
		Str("rating", report.Rating.Label).
		Msg("analysis complete")
	return report, nil
}

func (a *Analyzer) infoTimeout() time.Duration {
	if a.InfoTimeout <= 0 {
		return collector.DefaultPrimaryTimeout
	}
	return a.InfoTimeout
}

func (a *Analyzer) companyInfo(ctx context.Context, ticker string) map[string]any {
	if a.Info == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.infoTimeout())
	defer cancel()
	info, err := a.Info.FetchCompanyInfo(ctx, ticker)
	if err != nil {
		log.Debug().Err(err).Str("ticker", ticker).Msg("company info unavailable")
		return nil
	}
	return info
}

// reportedROE walks the supplementary ROE chain: secondary overview, then the
// primary info map. Both report a ratio, converted here to percent. An empty
// result lets the engine derive ROE from statements.
func (a *Analyzer) reportedROE(ctx context.Context, ticker string, info map[string]any) strategy.ReportedROE {
	if a.Ratios != nil {
		timeout := collector.DefaultSecondaryTimeout
		if a.Selector != nil && a.Selector.SecondaryTimeout > 0 {
			timeout = a.Selector.SecondaryTimeout
		}
		rctx, cancel := context.WithTimeout(ctx, timeout)
		var (
			v   null.Float
			err error
		)
		if a.Selector != nil {
			v, err = a.Selector.FetchReturnOnEquity(rctx, ticker, a.Ratios)
		} else {
			v, err = a.Ratios.FetchReturnOnEquity(rctx, ticker)
		}
		cancel()
		if err == nil && v.Valid {
			return strategy.ReportedROE{Value: null.FloatFrom(v.Float64 * 100), Source: model.SourceAlphaVantage}
		}
		log.Debug().Err(err).Str("ticker", ticker).Msg("secondary ROE unavailable")
	}
	if v := collector.InfoFloat(info, "returnOnEquity"); v.Valid {
		return strategy.ReportedROE{Value: null.FloatFrom(v.Float64 * 100), Source: model.SourceYahoo}
	}
	return strategy.ReportedROE{}
}
