package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"StockCheck/internal/fundamentals"
	"StockCheck/internal/model"
)

const (
	DefaultAlphaVantageBaseURL = "https://www.alphavantage.co"
	// DefaultAlphaVantageCallsPerMinute matches the free tier.
	DefaultAlphaVantageCallsPerMinute = 5
	alphaVantageProvider              = "alphavantage"
)

// AlphaVantageFetcher reads quarterly income statements and the company
// overview from Alpha Vantage.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter
}

// AlphaVantageOption configures an AlphaVantageFetcher.
type AlphaVantageOption func(*AlphaVantageFetcher)

// WithCallsPerMinute sets the client-side call budget. Zero or negative disables limiting.
func WithCallsPerMinute(n int) AlphaVantageOption {
	return func(f *AlphaVantageFetcher) {
		if n <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) AlphaVantageOption {
	return func(f *AlphaVantageFetcher) { f.Client = c }
}

// NewAlphaVantageFetcher creates a fetcher with the free-tier call budget.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration, opts ...AlphaVantageOption) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageBaseURL
	}
	f := &AlphaVantageFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, timeout),
	}
	WithCallsPerMinute(DefaultAlphaVantageCallsPerMinute)(f)
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *AlphaVantageFetcher) Source() model.Source { return model.SourceAlphaVantage }

// query calls one API function and decodes the JSON object body.
// The error keys are checked before the caller looks for data.
func (f *AlphaVantageFetcher) query(ctx context.Context, function, symbol string) (map[string]json.RawMessage, error) {
	if strings.TrimSpace(f.APIKey) == "" {
		return nil, providerErr(alphaVantageProvider, ErrAuth, "no API key configured")
	}
	if f.limiter != nil && !f.limiter.Allow() {
		return nil, providerErr(alphaVantageProvider, ErrRateLimited, "client-side call budget exhausted")
	}

	params := url.Values{"function": {function}, "symbol": {symbol}, "apikey": {f.APIKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: alphaVantageProvider, Kind: ErrTransport, Message: redactKey(err.Error(), f.APIKey), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ProviderError{Provider: alphaVantageProvider, Kind: ErrRateLimited, StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &ProviderError{Provider: alphaVantageProvider, Kind: ErrAuth, StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &ProviderError{Provider: alphaVantageProvider, Kind: ErrTransport, StatusCode: resp.StatusCode}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	if msg, ok := stringField(doc, "Error Message"); ok {
		return nil, providerErr(alphaVantageProvider, ErrAuth, msg)
	}
	if msg, ok := stringField(doc, "Note"); ok {
		return nil, providerErr(alphaVantageProvider, ErrRateLimited, msg)
	}
	if msg, ok := stringField(doc, "Information"); ok {
		return nil, providerErr(alphaVantageProvider, ErrInformational, msg)
	}
	return doc, nil
}

// FetchFundamentals returns the quarterlyReports of INCOME_STATEMENT.
func (f *AlphaVantageFetcher) FetchFundamentals(ctx context.Context, symbol string) (fundamentals.Payload, error) {
	doc, err := f.query(ctx, "INCOME_STATEMENT", symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch income statement %s: %w", symbol, err)
	}
	raw, ok := doc["quarterlyReports"]
	if !ok {
		return nil, providerErr(alphaVantageProvider, ErrNoData, "response has no quarterlyReports")
	}
	var reports fundamentals.AlphaVantageReports
	if err := json.Unmarshal(raw, &reports.Reports); err != nil {
		return nil, fmt.Errorf("decode quarterlyReports: %w", err)
	}
	if len(reports.Reports) == 0 {
		return nil, providerErr(alphaVantageProvider, ErrNoData, "quarterlyReports is empty")
	}
	log.Debug().Str("ticker", symbol).Int("quarters", len(reports.Reports)).Msg("alpha vantage income statement loaded")
	return reports, nil
}

// FetchReturnOnEquity returns ReturnOnEquityTTM from OVERVIEW as a ratio.
func (f *AlphaVantageFetcher) FetchReturnOnEquity(ctx context.Context, symbol string) (null.Float, error) {
	doc, err := f.query(ctx, "OVERVIEW", symbol)
	if err != nil {
		return null.Float{}, fmt.Errorf("fetch overview %s: %w", symbol, err)
	}
	s, ok := stringField(doc, "ReturnOnEquityTTM")
	if !ok || s == "None" || s == "-" {
		return null.Float{}, providerErr(alphaVantageProvider, ErrNoData, "overview has no ReturnOnEquityTTM")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return null.Float{}, providerErr(alphaVantageProvider, ErrNoData, "ReturnOnEquityTTM is not numeric: "+s)
	}
	return null.FloatFrom(d.InexactFloat64()), nil
}

func stringField(doc map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := doc[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "***")
}
