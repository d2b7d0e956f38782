package collector

import (
	"context"
	"fmt"
	"time"

	"StockCheck/internal/cache"
	"StockCheck/internal/fundamentals"
	"StockCheck/internal/metrics"
	"StockCheck/internal/model"
)

// DefaultCacheTTL is how long raw provider payloads are reused.
const DefaultCacheTTL = time.Hour

// YahooSource is the set of calls served by the primary provider.
type YahooSource interface {
	PriceFetcher
	InfoFetcher
	FetchStatements(ctx context.Context, symbol string) (fundamentals.YahooStatements, error)
}

// CachedYahoo puts a TTL cache in front of the primary provider. Only raw
// payloads are cached, never derived values.
type CachedYahoo struct {
	Next    YahooSource
	Cache   cache.Cache
	TTL     time.Duration
	Metrics *metrics.Registry
}

func NewCachedYahoo(next YahooSource, c cache.Cache, ttl time.Duration, m *metrics.Registry) *CachedYahoo {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedYahoo{Next: next, Cache: c, TTL: ttl, Metrics: m}
}

func (c *CachedYahoo) Name() string { return c.Next.Name() }

func (c *CachedYahoo) Source() model.Source { return model.SourceYahoo }

func (c *CachedYahoo) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	key := cache.Key(fmt.Sprintf("bars:%d", days), symbol)
	return remember(ctx, c, "bars", key, "chart", func(ctx context.Context) ([]model.OHLCV, error) {
		return c.Next.FetchDailyBars(ctx, symbol, days)
	})
}

func (c *CachedYahoo) FetchStatements(ctx context.Context, symbol string) (fundamentals.YahooStatements, error) {
	return remember(ctx, c, "statements", cache.Key("statements", symbol), "timeseries", func(ctx context.Context) (fundamentals.YahooStatements, error) {
		return c.Next.FetchStatements(ctx, symbol)
	})
}

func (c *CachedYahoo) FetchFundamentals(ctx context.Context, symbol string) (fundamentals.Payload, error) {
	st, err := c.FetchStatements(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (c *CachedYahoo) FetchCompanyInfo(ctx context.Context, symbol string) (map[string]any, error) {
	return remember(ctx, c, "info", cache.Key("info", symbol), "quoteSummary", func(ctx context.Context) (map[string]any, error) {
		return c.Next.FetchCompanyInfo(ctx, symbol)
	})
}

func remember[T any](ctx context.Context, c *CachedYahoo, namespace, key, call string, load func(context.Context) (T, error)) (T, error) {
	v, hit, err := cache.Remember(ctx, c.Cache, key, c.TTL, func(ctx context.Context) (T, error) {
		start := time.Now()
		v, err := load(ctx)
		c.Metrics.ObserveProvider(c.Next.Name(), call, time.Since(start), err)
		return v, err
	})
	c.Metrics.ObserveCache(namespace, hit)
	return v, err
}
