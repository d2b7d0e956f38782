package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"StockCheck/internal/fundamentals"
	"StockCheck/internal/metrics"
	"StockCheck/internal/model"
)

const (
	DefaultSecondaryTimeout = 15 * time.Second
	DefaultPrimaryTimeout   = 30 * time.Second
	breakerTripFailures     = 3
)

// Selection is the outcome of choosing a fundamentals source for one analysis.
// Exactly one of Payload or Err is set.
type Selection struct {
	Source     model.Source
	Payload    fundamentals.Payload
	Advisories []string
	// FallbackReason is set when the secondary provider was tried and abandoned.
	FallbackReason model.Reason
	Err            error
}

// Selector prefers the credentialed secondary provider and falls back to the
// primary one. The two are never merged.
type Selector struct {
	Primary          FundamentalsFetcher
	Secondary        FundamentalsFetcher // nil when no credential is configured
	PrimaryTimeout   time.Duration
	SecondaryTimeout time.Duration
	Metrics          *metrics.Registry

	breaker *gobreaker.CircuitBreaker
}

// NewSelector creates a selector whose secondary calls go through a circuit breaker.
func NewSelector(primary, secondary FundamentalsFetcher) *Selector {
	s := &Selector{
		Primary:          primary,
		Secondary:        secondary,
		PrimaryTimeout:   DefaultPrimaryTimeout,
		SecondaryTimeout: DefaultSecondaryTimeout,
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "secondary-fundamentals",
		Timeout: 5 * time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= breakerTripFailures
		},
		// A ticker the provider does not cover says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return s
}

// BreakerState reports the secondary breaker state.
func (s *Selector) BreakerState() gobreaker.State {
	if s.breaker == nil {
		return gobreaker.StateClosed
	}
	return s.breaker.State()
}

// Select fetches fundamentals for symbol from exactly one provider.
func (s *Selector) Select(ctx context.Context, symbol string) Selection {
	var sel Selection

	if s.Secondary != nil {
		payload, err := s.fetchSecondary(ctx, symbol)
		if err == nil {
			sel.Source = s.Secondary.Source()
			sel.Payload = payload
			s.Metrics.ObserveSelection(string(sel.Source), "")
			return sel
		}
		sel.FallbackReason = ReasonFor(err)
		sel.Advisories = append(sel.Advisories, fallbackAdvisory(s.Secondary.Source(), s.Primary.Source(), err))
		log.Warn().Err(err).Str("ticker", symbol).Str("reason", string(sel.FallbackReason)).
			Msg("secondary fundamentals unavailable, falling back")
	} else {
		sel.Advisories = append(sel.Advisories,
			fmt.Sprintf("No %s API key configured; fundamentals from %s.", model.SourceAlphaVantage, s.Primary.Source()))
	}

	ctx, cancel := context.WithTimeout(ctx, s.primaryTimeout())
	defer cancel()
	payload, err := s.Primary.FetchFundamentals(ctx, symbol)
	if err != nil {
		sel.Source = model.SourceNone
		sel.Err = fmt.Errorf("primary fundamentals %s: %w", symbol, err)
		s.Metrics.ObserveSelection(string(model.SourceNone), string(sel.FallbackReason))
		return sel
	}
	sel.Source = s.Primary.Source()
	sel.Payload = payload
	s.Metrics.ObserveSelection(string(sel.Source), string(sel.FallbackReason))
	return sel
}

func (s *Selector) fetchSecondary(ctx context.Context, symbol string) (fundamentals.Payload, error) {
	timeout := s.SecondaryTimeout
	if timeout <= 0 {
		timeout = DefaultSecondaryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := s.guarded(func() (interface{}, error) {
		return s.Secondary.FetchFundamentals(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	payload, _ := v.(fundamentals.Payload)
	if payload == nil {
		return nil, providerErr(string(s.Secondary.Source()), ErrNoData, "empty payload")
	}
	return payload, nil
}

// FetchReturnOnEquity asks ratios for the reported ROE through the secondary
// breaker, so an open breaker also stops the supplementary lookup.
func (s *Selector) FetchReturnOnEquity(ctx context.Context, symbol string, ratios RatioFetcher) (null.Float, error) {
	v, err := s.guarded(func() (interface{}, error) {
		return ratios.FetchReturnOnEquity(ctx, symbol)
	})
	if err != nil {
		return null.Float{}, err
	}
	roe, _ := v.(null.Float)
	return roe, nil
}

func (s *Selector) guarded(call func() (interface{}, error)) (interface{}, error) {
	if s.breaker == nil {
		return call()
	}
	return s.breaker.Execute(call)
}

func (s *Selector) primaryTimeout() time.Duration {
	if s.PrimaryTimeout <= 0 {
		return DefaultPrimaryTimeout
	}
	return s.PrimaryTimeout
}

func fallbackAdvisory(from, to model.Source, err error) string {
	var what string
	switch {
	case errors.Is(err, ErrRateLimited):
		what = "rate limit reached"
	case errors.Is(err, ErrAuth):
		what = "API key rejected"
	case errors.Is(err, ErrInformational):
		what = "provider returned an informational message"
	case errors.Is(err, ErrNoData):
		what = "no quarterly data for this ticker"
	case errors.Is(err, gobreaker.ErrOpenState):
		what = "temporarily disabled after repeated failures"
	case errors.Is(err, context.DeadlineExceeded):
		what = "request timed out"
	default:
		what = "request failed"
	}
	return fmt.Sprintf("%s: %s; using %s.", from, what, to)
}
