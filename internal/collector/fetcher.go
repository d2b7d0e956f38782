package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/guregu/null/v6"

	"StockCheck/internal/fundamentals"
	"StockCheck/internal/model"
)

// PriceFetcher loads daily price history.
type PriceFetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// FundamentalsFetcher loads quarterly statements in a provider schema.
type FundamentalsFetcher interface {
	FetchFundamentals(ctx context.Context, symbol string) (fundamentals.Payload, error)
	Source() model.Source
}

// InfoFetcher loads the flat company-info map (short name, ratios).
type InfoFetcher interface {
	FetchCompanyInfo(ctx context.Context, symbol string) (map[string]any, error)
}

// RatioFetcher loads the reported trailing return on equity as a ratio (0.25 = 25%).
type RatioFetcher interface {
	FetchReturnOnEquity(ctx context.Context, symbol string) (null.Float, error)
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
