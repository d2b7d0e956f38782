package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCheck/internal/fundamentals"
)

const chartJSON = `{"chart":{"result":[{"timestamp":[1704326400,1704153600,1704240000],
"indicators":{"quote":[{"open":[12,10,null],"high":[13,11,null],"low":[11,9,null],"close":[12.5,10.5,null],"volume":[300,100,null]}]}}],"error":null}}`

const timeseriesJSON = `{"timeseries":{"result":[
{"meta":{"symbol":["ACME"],"type":["quarterlyTotalRevenue"]},"timestamp":[1],
 "quarterlyTotalRevenue":[
  {"asOfDate":"2024-03-31","reportedValue":{"raw":100,"fmt":"100"}},
  {"asOfDate":"2024-06-30","reportedValue":{"raw":120,"fmt":"120"}},
  null]},
{"meta":{"symbol":["ACME"],"type":["quarterlyGrossProfit"]},"timestamp":[1],
 "quarterlyGrossProfit":[{"asOfDate":"2024-06-30","reportedValue":{"raw":60}}]},
{"meta":{"symbol":["ACME"],"type":["quarterlyStockholdersEquity"]},"timestamp":[1],
 "quarterlyStockholdersEquity":[{"asOfDate":"2024-06-30","reportedValue":{"raw":1000}}]},
{"meta":{"symbol":["ACME"],"type":["quarterlyNetIncome"]}}
],"error":null}}`

const quoteSummaryJSON = `{"quoteSummary":{"result":[{
 "financialData":{"returnOnEquity":{"raw":0.2534,"fmt":"25.34%"},"currentPrice":{"raw":12.5}},
 "price":{"shortName":"Acme Corp","regularMarketPrice":{"raw":12.5},"quoteType":{}}
}],"error":null}}`

func yahooServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/ACME"):
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			assert.Equal(t, "1y", r.URL.Query().Get("range"))
			w.Write([]byte(chartJSON))
		case strings.HasPrefix(r.URL.Path, "/ws/fundamentals-timeseries/v1/finance/timeseries/ACME"):
			assert.Contains(t, r.URL.Query().Get("type"), "quarterlyTotalRevenue")
			w.Write([]byte(timeseriesJSON))
		case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/ACME"):
			w.Write([]byte(quoteSummaryJSON))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()
	f := NewYahooFetcher(srv.URL, "", 5*time.Second)

	bars, err := f.FetchDailyBars(context.Background(), "ACME", HistoryDays)
	require.NoError(t, err)
	require.Len(t, bars, 2, "null bar skipped")
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 300.0, bars[1].Volume)
}

func TestYahooFetcher_UnknownSymbol(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()
	f := NewYahooFetcher(srv.URL, "", 5*time.Second)

	_, err := f.FetchDailyBars(context.Background(), "NOPE", HistoryDays)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahooFetcher_FetchStatements(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()
	f := NewYahooFetcher(srv.URL, "", 5*time.Second)

	st, err := f.FetchStatements(context.Background(), "ACME")
	require.NoError(t, err)
	require.Len(t, st.Income.Periods, 2)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), st.Income.Periods[0])

	rev := st.Income.Row(fundamentals.RevenueItems...)
	require.Len(t, rev, 2)
	assert.Equal(t, "120", rev[0].Decimal.String())
	assert.Equal(t, "100", rev[1].Decimal.String())

	gp := st.Income.Row(fundamentals.GrossProfitItems...)
	assert.True(t, gp[0].Valid)
	assert.False(t, gp[1].Valid)
	assert.Nil(t, st.Income.Row(fundamentals.NetIncomeItems...))

	eq := st.Balance.Row(fundamentals.EquityItems...)
	require.Len(t, eq, 1)
	assert.Equal(t, "1000", eq[0].Decimal.String())

	payload, err := f.FetchFundamentals(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, fundamentals.SchemaSparse, payload.Kind())
}

func TestYahooFetcher_FetchCompanyInfo(t *testing.T) {
	srv := yahooServer(t)
	defer srv.Close()
	f := NewYahooFetcher(srv.URL, "", 5*time.Second)

	info, err := f.FetchCompanyInfo(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", InfoString(info, "shortName"))
	roe := InfoFloat(info, "returnOnEquity")
	require.True(t, roe.Valid)
	assert.InDelta(t, 0.2534, roe.Float64, 1e-9)
	assert.NotContains(t, info, "quoteType")
	assert.False(t, InfoFloat(info, "missing").Valid)
}

func TestYahooFetcher_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusInternalServerError, ErrTransport},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		f := NewYahooFetcher(srv.URL, "", 5*time.Second)
		_, err := f.FetchDailyBars(context.Background(), "ACME", HistoryDays)
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		srv.Close()
	}
}
