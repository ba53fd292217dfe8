package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/config"
	"github.com/Karanjudyani/macro-market-shock-transmissions/internal/marketdata"
	"github.com/Karanjudyani/macro-market-shock-transmissions/pkg/contracts/domain"
)

// Client downloads daily bars from the Yahoo Finance v8 chart API.
// All requests share one rate limiter, so concurrent fetches stay
// under the endpoint's informal throttling threshold.
type Client struct {
	baseURL   string
	userAgent string
	interval  string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient builds a chart client from the fetch configuration.
func NewClient(cfg config.FetchConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		interval:  cfg.Interval,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
	}
}

// chartResponse mirrors the subset of the chart payload the collector
// reads. Quote columns arrive as []interface{} because the API emits
// literal nulls for sessions without prints.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyBars fetches the daily history for one symbol. Both bounds are
// inclusive calendar dates. Sessions the API reports as null carry no
// usable close and are dropped; the returned bars are date-sorted.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// period2 is an exclusive upper bound on bar timestamps, so the
	// end date's session needs the following midnight.
	endpoint := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s&includeAdjustedClose=true",
		c.baseURL, url.PathEscape(symbol),
		start.Unix(), end.AddDate(0, 0, 1).Unix(), c.interval)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build chart request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("chart API returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error %s: %s",
			payload.Chart.Error.Code, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("chart API returned no data")
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart API returned no quote block")
	}
	quote := result.Indicators.Quote[0]

	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bar := domain.PriceBar{
			Symbol:   symbol,
			Date:     marketdata.Normalize(time.Unix(ts, 0).UTC()),
			Open:     numberAt(quote.Open, i),
			High:     numberAt(quote.High, i),
			Low:      numberAt(quote.Low, i),
			Close:    numberAt(quote.Close, i),
			AdjClose: numberAt(adj, i),
			Volume:   int64(numberAt(quote.Volume, i)),
		}
		if bar.EffectiveClose() <= 0 {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("chart API returned only null sessions")
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// numberAt reads one cell of a quote column, tolerating JSON nulls and
// columns shorter than the timestamp axis.
func numberAt(col []interface{}, i int) float64 {
	if i >= len(col) {
		return 0
	}
	switch v := col[i].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
