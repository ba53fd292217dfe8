package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
)

// Session timestamps carry the NSE close stamp (03:45 UTC) to confirm
// normalization to midnight: 2021-03-01, 2021-03-02, 2021-03-03.
const chartBodyThreeDays = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "RELIANCE.NS"},
      "timestamp": [1614570300, 1614656700, 1614743100],
      "indicators": {
        "quote": [{
          "open":   [2100.0, null, 2120.5],
          "high":   [2150.0, null, 2160.0],
          "low":    [2080.0, null, 2100.0],
          "close":  [2125.0, null, 2140.25],
          "volume": [5000000, null, 6200000]
        }],
        "adjclose": [{"adjclose": [2110.4, null, 2125.8]}]
      }
    }],
    "error": null
  }
}`

func fetchTestConfig(baseURL string) config.FetchConfig {
	return config.FetchConfig{
		Start:       "2021-03-01",
		End:         "2021-03-03",
		Interval:    "1d",
		BaseURL:     baseURL,
		UserAgent:   "research-agent/1.0",
		Timeout:     5 * time.Second,
		RatePerSec:  1000,
		Burst:       100,
		Concurrency: 2,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, config.FetchConfig) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := fetchTestConfig(srv.URL)
	return NewClient(cfg), cfg
}

func TestClientDailyBars(t *testing.T) {
	var gotPath, gotAgent string
	var gotQuery map[string]string
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(chartBodyThreeDays))
	})

	start, end, err := cfg.Window()
	require.NoError(t, err)

	bars, err := client.DailyBars(context.Background(), "RELIANCE.NS", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/RELIANCE.NS", gotPath)
	assert.Equal(t, "research-agent/1.0", gotAgent)
	assert.Equal(t, "1614556800", gotQuery["period1"], "period1 is the start midnight")
	assert.Equal(t, "1614816000", gotQuery["period2"], "period2 is the midnight after the end date")
	assert.Equal(t, "1d", gotQuery["interval"])
	assert.Equal(t, "true", gotQuery["includeAdjustedClose"])

	// The null middle session is dropped, not zero-filled.
	require.Len(t, bars, 2)

	first := bars[0]
	assert.Equal(t, "RELIANCE.NS", first.Symbol)
	assert.Equal(t, time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 2100.0, first.Open)
	assert.Equal(t, 2150.0, first.High)
	assert.Equal(t, 2080.0, first.Low)
	assert.Equal(t, 2125.0, first.Close)
	assert.Equal(t, 2110.4, first.AdjClose)
	assert.Equal(t, int64(5000000), first.Volume)
	assert.Equal(t, 2110.4, first.EffectiveClose())

	second := bars[1]
	assert.Equal(t, time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Equal(t, 2125.8, second.AdjClose)
}

func TestClientDailyBarsSortsByDate(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1614743100,1614570300],
		"indicators":{"quote":[{"close":[103.0,101.0]}],
		"adjclose":[{"adjclose":[103.0,101.0]}]}}],"error":null}}`
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	start, end, _ := cfg.Window()
	bars, err := client.DailyBars(context.Background(), "TCS.NS", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.Equal(t, 101.0, bars[0].Close)
}

func TestClientDailyBarsCloseFallbackWithoutAdjClose(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1614570300],
		"indicators":{"quote":[{"close":[250.5]}]}}],"error":null}}`
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	start, end, _ := cfg.Window()
	bars, err := client.DailyBars(context.Background(), "BZ=F", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 250.5, bars[0].Close)
	assert.Equal(t, 0.0, bars[0].AdjClose)
	assert.Equal(t, 250.5, bars[0].EffectiveClose())
}

func TestClientDailyBarsHTTPError(t *testing.T) {
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	start, end, _ := cfg.Window()
	_, err := client.DailyBars(context.Background(), "RELIANCE.NS", start, end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClientDailyBarsChartError(t *testing.T) {
	body := `{"chart":{"result":null,
		"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	start, end, _ := cfg.Window()
	_, err := client.DailyBars(context.Background(), "GONE.NS", start, end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestClientDailyBarsNoData(t *testing.T) {
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	start, end, _ := cfg.Window()
	_, err := client.DailyBars(context.Background(), "EMPTY.NS", start, end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}

func TestClientDailyBarsAllNullSessions(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1614570300,1614656700],
		"indicators":{"quote":[{"close":[null,null]}],
		"adjclose":[{"adjclose":[null,null]}]}}],"error":null}}`
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	start, end, _ := cfg.Window()
	_, err := client.DailyBars(context.Background(), "HALTED.NS", start, end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null sessions")
}

func TestClientDailyBarsContextCancelled(t *testing.T) {
	client, cfg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartBodyThreeDays))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start, end, _ := cfg.Window()
	_, err := client.DailyBars(ctx, "RELIANCE.NS", start, end)
	require.ErrorIs(t, err, context.Canceled)
}
