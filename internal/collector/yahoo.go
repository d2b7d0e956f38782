package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"StockCheck/internal/fundamentals"
	"StockCheck/internal/model"
)

const (
	DefaultYahooBaseURL = "https://query2.finance.yahoo.com"
	yahooProvider       = "yahoo"
)

// Quarterly timeseries types and the statement line items they populate.
var (
	yahooIncomeTypes = map[string]string{
		"quarterlyTotalRevenue":                "Total Revenue",
		"quarterlyOperatingRevenue":            "Operating Revenue",
		"quarterlyNetIncome":                   "Net Income",
		"quarterlyNetIncomeCommonStockholders": "Net Income Common Stockholders",
		"quarterlyGrossProfit":                 "Gross Profit",
		"quarterlyEBITDA":                      "EBITDA",
		"quarterlyNormalizedEBITDA":            "Normalized EBITDA",
	}
	yahooBalanceTypes = map[string]string{
		"quarterlyStockholdersEquity": "Stockholders Equity",
		"quarterlyCommonStockEquity":  "Common Stock Equity",
	}
)

// YahooFetcher reads prices, quarterly statements and company info from Yahoo Finance.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps user-facing symbols to Yahoo tickers
	now       func() time.Time
}

// NewYahooFetcher creates a Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
		},
		now: time.Now,
	}
}

func (f *YahooFetcher) Name() string { return yahooProvider }

func (f *YahooFetcher) Source() model.Source { return model.SourceYahoo }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (f *YahooFetcher) get(ctx context.Context, path string, params url.Values, out any) error {
	u := f.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return &ProviderError{Provider: yahooProvider, Kind: ErrTransport, Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("yahoo read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ProviderError{Provider: yahooProvider, Kind: ErrNoData, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ProviderError{Provider: yahooProvider, Kind: ErrRateLimited, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProviderError{Provider: yahooProvider, Kind: ErrAuth, StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return &ProviderError{Provider: yahooProvider, Kind: ErrTransport, StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("yahoo decode: %w", err)
	}
	return nil
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func chartRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// FetchDailyBars returns ascending daily bars covering roughly the last days calendar days.
func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	params := url.Values{"interval": {"1d"}, "range": {chartRange(days)}}
	var chart yahooChart
	if err := f.get(ctx, "/v8/finance/chart/"+url.PathEscape(f.yahooSymbol(symbol)), params, &chart); err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, providerErr(yahooProvider, ErrNoData, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, providerErr(yahooProvider, ErrNoData, "empty chart for "+symbol)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // holidays and halted sessions come back as nulls
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}
	if len(bars) == 0 {
		return nil, providerErr(yahooProvider, ErrNoData, "no priced bars for "+symbol)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

type yahooTimeseries struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yahooError                  `json:"error"`
	} `json:"timeseries"`
}

type yahooTimeseriesMeta struct {
	Type []string `json:"type"`
}

type yahooTimeseriesPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue struct {
		Raw *float64 `json:"raw"`
	} `json:"reportedValue"`
}

// FetchStatements returns quarterly income and balance statements.
func (f *YahooFetcher) FetchStatements(ctx context.Context, symbol string) (fundamentals.YahooStatements, error) {
	types := make([]string, 0, len(yahooIncomeTypes)+len(yahooBalanceTypes))
	for t := range yahooIncomeTypes {
		types = append(types, t)
	}
	for t := range yahooBalanceTypes {
		types = append(types, t)
	}
	sort.Strings(types)

	now := f.now()
	params := url.Values{
		"type":    {strings.Join(types, ",")},
		"period1": {fmt.Sprint(now.AddDate(-4, 0, 0).Unix())},
		"period2": {fmt.Sprint(now.Unix())},
	}
	var ts yahooTimeseries
	path := "/ws/fundamentals-timeseries/v1/finance/timeseries/" + url.PathEscape(f.yahooSymbol(symbol))
	if err := f.get(ctx, path, params, &ts); err != nil {
		return fundamentals.YahooStatements{}, fmt.Errorf("fetch statements %s: %w", symbol, err)
	}
	if ts.Timeseries.Error != nil {
		return fundamentals.YahooStatements{}, providerErr(yahooProvider, ErrNoData, ts.Timeseries.Error.Description)
	}

	income := newStatementBuilder()
	balance := newStatementBuilder()
	for _, item := range ts.Timeseries.Result {
		var meta yahooTimeseriesMeta
		if raw, ok := item["meta"]; !ok || json.Unmarshal(raw, &meta) != nil || len(meta.Type) == 0 {
			continue
		}
		typ := meta.Type[0]
		raw, ok := item[typ]
		if !ok {
			continue
		}
		var points []*yahooTimeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			return fundamentals.YahooStatements{}, fmt.Errorf("decode %s: %w", typ, err)
		}
		if name, ok := yahooIncomeTypes[typ]; ok {
			income.add(name, points)
		} else if name, ok := yahooBalanceTypes[typ]; ok {
			balance.add(name, points)
		}
	}

	st := fundamentals.YahooStatements{Income: income.build(), Balance: balance.build()}
	if st.Income.Empty() {
		return st, providerErr(yahooProvider, ErrNoData, "no quarterly income statement for "+symbol)
	}
	return st, nil
}

// FetchFundamentals implements FundamentalsFetcher.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, symbol string) (fundamentals.Payload, error) {
	st, err := f.FetchStatements(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return st, nil
}

type statementBuilder struct {
	values map[string]map[time.Time]decimal.NullDecimal
	dates  map[time.Time]struct{}
}

func newStatementBuilder() *statementBuilder {
	return &statementBuilder{
		values: make(map[string]map[time.Time]decimal.NullDecimal),
		dates:  make(map[time.Time]struct{}),
	}
}

func (b *statementBuilder) add(name string, points []*yahooTimeseriesPoint) {
	for _, p := range points {
		if p == nil {
			continue
		}
		d, err := time.Parse("2006-01-02", p.AsOfDate)
		if err != nil {
			continue
		}
		if b.values[name] == nil {
			b.values[name] = make(map[time.Time]decimal.NullDecimal)
		}
		b.dates[d] = struct{}{}
		if p.ReportedValue.Raw != nil {
			b.values[name][d] = decimal.NewNullDecimal(decimal.NewFromFloat(*p.ReportedValue.Raw))
		}
	}
}

func (b *statementBuilder) build() fundamentals.Statement {
	st := fundamentals.Statement{LineItems: make(map[string][]decimal.NullDecimal, len(b.values))}
	for d := range b.dates {
		st.Periods = append(st.Periods, d)
	}
	sort.Slice(st.Periods, func(i, j int) bool { return st.Periods[i].After(st.Periods[j]) })
	for name, byDate := range b.values {
		row := make([]decimal.NullDecimal, len(st.Periods))
		for i, d := range st.Periods {
			row[i] = byDate[d]
		}
		st.LineItems[name] = row
	}
	return st
}

type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []map[string]map[string]json.RawMessage `json:"result"`
		Error  *yahooError                             `json:"error"`
	} `json:"quoteSummary"`
}

// FetchCompanyInfo returns a flat map of quoteSummary fields such as
// "shortName" and "returnOnEquity". Formatted values are reduced to their raw number.
func (f *YahooFetcher) FetchCompanyInfo(ctx context.Context, symbol string) (map[string]any, error) {
	params := url.Values{"modules": {"financialData,price,defaultKeyStatistics"}}
	var qs yahooQuoteSummary
	if err := f.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(f.yahooSymbol(symbol)), params, &qs); err != nil {
		return nil, fmt.Errorf("fetch company info %s: %w", symbol, err)
	}
	if qs.QuoteSummary.Error != nil {
		return nil, providerErr(yahooProvider, ErrNoData, qs.QuoteSummary.Error.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, providerErr(yahooProvider, ErrNoData, "empty quote summary for "+symbol)
	}

	info := make(map[string]any)
	for _, module := range qs.QuoteSummary.Result[0] {
		for key, raw := range module {
			if v, ok := flattenValue(raw); ok {
				info[key] = v
			}
		}
	}
	return info, nil
}

func flattenValue(raw json.RawMessage) (any, bool) {
	var wrapped struct {
		Raw *float64 `json:"raw"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Raw != nil {
		return *wrapped.Raw, true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case string, float64, bool:
		return v, true
	default:
		return nil, false
	}
}

// InfoFloat reads a numeric entry from a company-info map.
func InfoFloat(info map[string]any, key string) null.Float {
	switch v := info[key].(type) {
	case float64:
		return null.FloatFrom(v)
	case int:
		return null.FloatFrom(float64(v))
	default:
		return null.Float{}
	}
}

// InfoString reads a string entry from a company-info map.
func InfoString(info map[string]any, key string) string {
	s, _ := info[key].(string)
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
