package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_Observe(t *testing.T) {
	r := New()
	r.ObserveAnalysis("AAPL", 9.5, time.Second, nil)
	r.ObserveAnalysis("AAPL", 0, time.Second, errors.New("boom"))
	r.ObserveSelection("Yahoo Finance", "rate_limited")
	r.ObserveSelection("Alpha Vantage", "")
	r.ObserveCache("bars", true)
	r.ObserveCache("bars", false)
	r.ObserveCache("bars", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Analyses.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Analyses.WithLabelValues("error")))
	assert.Equal(t, 9.5, testutil.ToFloat64(r.TotalScore.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Fallbacks.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SourceSelections.WithLabelValues("Alpha Vantage")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.CacheLookups.WithLabelValues("bars", "miss")))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	r.ObserveAnalysis("AAPL", 1, time.Second, nil)
	r.ObserveSelection("x", "y")
	r.ObserveProvider("p", "c", time.Second, nil)
	r.ObserveCache("n", true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.ObserveProvider("yahoo", "chart", 200*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "stockcheck_provider_request_seconds"))
}
