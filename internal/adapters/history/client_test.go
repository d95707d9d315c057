package history_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alejandrodnm/simtrader/internal/adapters/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{
  "chart": {
    "result": [{
      "meta": {"currency": "USD", "exchangeName": "NMS", "chartPreviousClose": 99.5},
      "timestamp": [1709251200, 1709337600, 1709424000],
      "indicators": {"quote": [{
        "open":   [100.0, 101.0, null],
        "high":   [102.0, 103.0, null],
        "low":    [ 99.0, 100.5, null],
        "close":  [101.0, 102.5, null],
        "volume": [1000000, null, null]
      }]}
    }],
    "error": null
  }
}`

func TestFetchHistoryParsesBarsAndSkipsNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
		assert.Equal(t, "1mo", r.URL.Query().Get("range"))
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c := history.NewClient(srv.URL)
	series, err := c.FetchHistory(context.Background(), "AAPL", "1mo", "1d")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", series.Symbol)
	assert.Equal(t, "USD", series.Currency)
	assert.Equal(t, "NMS", series.Exchange)
	assert.InDelta(t, 99.5, series.PreviousClose, 1e-9)

	// Third entry is a null (untraded) session and must be skipped.
	require.Len(t, series.Bars, 2)
	assert.Equal(t, 0, series.Bars[0].Day)
	assert.InDelta(t, 101.0, series.Bars[0].Close, 1e-9)
	assert.InDelta(t, 1e6, series.Bars[0].Volume, 1e-9)
	assert.Equal(t, 1, series.Bars[1].Day)
	assert.Zero(t, series.Bars[1].Volume, "null volume defaults to zero")
}

func TestFetchHistoryAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := history.NewClient(srv.URL)
	_, err := c.FetchHistory(context.Background(), "NOPE", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestFetchHistoryRetriesOn503(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	c := history.NewClient(srv.URL)
	series, err := c.FetchHistory(context.Background(), "AAPL", "1mo", "1d")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, series.Bars, 2)
}

func TestFetchHistoryClientErrorDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := history.NewClient(srv.URL)
	_, err := c.FetchHistory(context.Background(), "AAPL", "1mo", "1d")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSearchSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v1/finance/search")
		assert.Equal(t, "apple", r.URL.Query().Get("q"))
		w.Write([]byte(`{"quotes":[
			{"symbol":"AAPL","shortname":"Apple Inc.","exchange":"NMS","quoteType":"EQUITY"},
			{"symbol":"","shortname":"garbage"},
			{"symbol":"APC.F","longname":"Apple Inc.","exchange":"FRA","quoteType":"EQUITY"}
		]}`))
	}))
	defer srv.Close()

	c := history.NewClient(srv.URL)
	matches, err := c.SearchSymbols(context.Background(), "apple")
	require.NoError(t, err)

	require.Len(t, matches, 2, "entries without a symbol are dropped")
	assert.Equal(t, "AAPL", matches[0].Symbol)
	assert.Equal(t, "Apple Inc.", matches[0].Name)
	assert.Equal(t, "EQUITY", matches[0].Type)
	assert.Equal(t, "FRA", matches[1].Exchange)
}
