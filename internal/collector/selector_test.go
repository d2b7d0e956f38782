package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCheck/internal/fundamentals"
	"StockCheck/internal/model"
)

func yahooPayload() fundamentals.YahooStatements {
	return fundamentals.YahooStatements{Income: fundamentals.Statement{
		Periods: []time.Time{time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)},
	}}
}

func TestSelector_SecondaryPreferred(t *testing.T) {
	primary := &MockFetcher{Statements: yahooPayload()}
	secondary := &MockFetcher{Src: model.SourceAlphaVantage, Statements: fundamentals.AlphaVantageReports{
		Reports: []map[string]any{{"totalRevenue": "1"}},
	}}
	sel := NewSelector(primary, secondary).Select(context.Background(), "ACME")

	require.NoError(t, sel.Err)
	assert.Equal(t, model.SourceAlphaVantage, sel.Source)
	assert.Equal(t, fundamentals.SchemaRich, sel.Payload.Kind())
	assert.Empty(t, sel.Advisories)
	assert.Zero(t, primary.Calls, "primary must not be queried")
}

func TestSelector_RateLimitNoteFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note":"rate limit"}`))
	}))
	defer srv.Close()

	primary := &MockFetcher{Statements: yahooPayload()}
	secondary := NewAlphaVantageFetcher(srv.URL, "demo", "", 5*time.Second)
	sel := NewSelector(primary, secondary).Select(context.Background(), "ACME")

	require.NoError(t, sel.Err)
	assert.Equal(t, model.SourceYahoo, sel.Source)
	assert.Equal(t, fundamentals.SchemaSparse, sel.Payload.Kind())
	assert.Equal(t, model.ReasonRateLimited, sel.FallbackReason)
	require.Len(t, sel.Advisories, 1)
	assert.Contains(t, sel.Advisories[0], "rate limit")
}

func TestSelector_NoCredential(t *testing.T) {
	primary := &MockFetcher{Statements: yahooPayload()}
	sel := NewSelector(primary, nil).Select(context.Background(), "ACME")

	require.NoError(t, sel.Err)
	assert.Equal(t, model.SourceYahoo, sel.Source)
	assert.Equal(t, model.ReasonNone, sel.FallbackReason)
	assert.Len(t, sel.Advisories, 1)
}

func TestSelector_BothFail(t *testing.T) {
	primary := &MockFetcher{Err: providerErr("yahoo", ErrTransport, "down")}
	secondary := &MockFetcher{Src: model.SourceAlphaVantage, Err: providerErr("av", ErrAuth, "bad key")}
	sel := NewSelector(primary, secondary).Select(context.Background(), "ACME")

	require.Error(t, sel.Err)
	assert.Nil(t, sel.Payload)
	assert.Equal(t, model.SourceNone, sel.Source)
	assert.Equal(t, model.ReasonAuthFailure, sel.FallbackReason)
}

func TestSelector_BreakerTrips(t *testing.T) {
	primary := &MockFetcher{Statements: yahooPayload()}
	secondary := &MockFetcher{Src: model.SourceAlphaVantage, Err: providerErr("av", ErrTransport, "down")}
	s := NewSelector(primary, secondary)

	for i := 0; i < breakerTripFailures; i++ {
		s.Select(context.Background(), "ACME")
	}
	assert.Equal(t, gobreaker.StateOpen, s.BreakerState())
	assert.Equal(t, breakerTripFailures, secondary.Calls)

	sel := s.Select(context.Background(), "ACME")
	assert.Equal(t, breakerTripFailures, secondary.Calls, "open breaker skips the secondary")
	assert.Equal(t, model.SourceYahoo, sel.Source)
	assert.Contains(t, sel.Advisories[0], "temporarily disabled")
}

func TestSelector_NoDataDoesNotTrip(t *testing.T) {
	primary := &MockFetcher{Statements: yahooPayload()}
	secondary := &MockFetcher{Src: model.SourceAlphaVantage}
	s := NewSelector(primary, secondary)

	for i := 0; i < breakerTripFailures+1; i++ {
		sel := s.Select(context.Background(), "ACME")
		assert.Equal(t, model.ReasonDataUnavailable, sel.FallbackReason)
	}
	assert.Equal(t, gobreaker.StateClosed, s.BreakerState())
}

func TestSelector_TimeoutAdvisory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	primary := &MockFetcher{Statements: yahooPayload()}
	s := NewSelector(primary, NewAlphaVantageFetcher(srv.URL, "demo", "", 5*time.Second))
	s.SecondaryTimeout = 50 * time.Millisecond
	sel := s.Select(context.Background(), "ACME")

	require.NoError(t, sel.Err)
	assert.Equal(t, model.SourceYahoo, sel.Source)
	assert.Equal(t, model.ReasonTransport, sel.FallbackReason)
	require.Len(t, sel.Advisories, 1)
	assert.Contains(t, sel.Advisories[0], "request timed out")
}

func TestSelector_ReturnOnEquityShareBreaker(t *testing.T) {
	primary := &MockFetcher{Statements: yahooPayload()}
	secondary := &MockFetcher{Src: model.SourceAlphaVantage, Err: providerErr("av", ErrTransport, "down")}
	s := NewSelector(primary, secondary)
	ratios := &MockFetcher{ROE: null.FloatFrom(0.2)}

	roe, err := s.FetchReturnOnEquity(context.Background(), "ACME", ratios)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, roe.Float64, 1e-9)

	for i := 0; i < breakerTripFailures; i++ {
		s.Select(context.Background(), "ACME")
	}
	_, err = s.FetchReturnOnEquity(context.Background(), "ACME", ratios)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 1, ratios.Calls)
}
