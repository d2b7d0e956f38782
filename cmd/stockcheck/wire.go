package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"StockCheck/internal/analyzer"
	"StockCheck/internal/cache"
	"StockCheck/internal/collector"
	"StockCheck/internal/config"
	"StockCheck/internal/inputs"
	"StockCheck/internal/metrics"
)

// app bundles the wired dependencies shared by the subcommands.
type app struct {
	Analyzer *analyzer.Analyzer
	Inputs   *inputs.FileStore
	Metrics  *metrics.Registry
	Cache    cache.Cache
}

func (a *app) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("close cache")
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if cfg.Cache.Backend == cache.BackendSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Cache.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	c, err := cache.Open(ctx, cache.Options{
		Backend:    cfg.Cache.Backend,
		SQLitePath: cfg.Cache.SQLitePath,
		RedisAddr:  cfg.Cache.RedisAddr,
	})
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("cache unavailable, continuing without it")
		c = cache.NewNoop()
	}

	reg := metrics.New()
	store := inputs.NewFileStore(cfg.Inputs.File)

	yahoo := collector.NewYahooFetcher(cfg.Providers.Yahoo.BaseURL, cfg.Providers.Proxy, cfg.Providers.Yahoo.Timeout)
	primary := collector.NewCachedYahoo(yahoo, c, cfg.Cache.TTL, reg)

	key := cfg.Providers.AlphaVantage.APIKey
	if key == "" {
		if key, err = store.APIKey(); err != nil {
			log.Warn().Err(err).Msg("read stored Alpha Vantage key")
		}
	}

	a := &analyzer.Analyzer{
		Prices:      collector.NewCollector(primary),
		Info:        primary,
		Inputs:      store,
		Metrics:     reg,
		InfoTimeout: cfg.Providers.Yahoo.Timeout,
	}
	a.Prices.Timeout = cfg.Providers.Yahoo.Timeout

	var sel *collector.Selector
	if key != "" {
		av := collector.NewAlphaVantageFetcher(cfg.Providers.AlphaVantage.BaseURL, key, cfg.Providers.Proxy,
			cfg.Providers.AlphaVantage.Timeout, collector.WithCallsPerMinute(cfg.Providers.AlphaVantage.CallsPerMinute))
		sel = collector.NewSelector(primary, av)
		a.Ratios = av
		log.Info().Msg("Alpha Vantage enabled for fundamentals")
	} else {
		sel = collector.NewSelector(primary, nil)
	}
	sel.PrimaryTimeout = cfg.Providers.Yahoo.Timeout
	sel.SecondaryTimeout = cfg.Providers.AlphaVantage.Timeout
	sel.Metrics = reg
	a.Selector = sel

	return &app{Analyzer: a, Inputs: store, Metrics: reg, Cache: c}, nil
}
