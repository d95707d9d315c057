// Package history implements the historical data source port against a
// Yahoo-chart-compatible HTTP API.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/alejandrodnm/simtrader/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"

	// Conservative limits: the public chart endpoint tolerates bursts but
	// throttles sustained traffic hard.
	chartRatePerSec  = 2
	searchRatePerSec = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client fetches OHLCV series and symbol matches with rate limiting and
// retries.
type Client struct {
	http          *http.Client
	baseURL       string
	chartLimiter  *rate.Limiter
	searchLimiter *rate.Limiter
}

// NewClient creates a Client against baseURL, falling back to the public
// endpoint when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:          &http.Client{Timeout: 15 * time.Second},
		baseURL:       baseURL,
		chartLimiter:  rate.NewLimiter(chartRatePerSec, 4),
		searchLimiter: rate.NewLimiter(searchRatePerSec, 4),
	}
}

// FetchHistory returns the ordered daily bars for symbol plus metadata.
// Bars with no traded data (null entries in the source arrays) are skipped.
func (c *Client) FetchHistory(ctx context.Context, symbol, rng, interval string) (*domain.HistorySeries, error) {
	if rng == "" {
		rng = "1y"
	}
	if interval == "" {
		interval = "1d"
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(rng), url.QueryEscape(interval))

	var resp chartResponse
	if err := c.get(ctx, c.chartLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("history.FetchHistory: %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("history.FetchHistory: %s: %s (%s)",
			symbol, resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("history.FetchHistory: %s: empty result", symbol)
	}

	series, err := resp.Chart.Result[0].toSeries(symbol)
	if err != nil {
		return nil, fmt.Errorf("history.FetchHistory: %s: %w", symbol, err)
	}
	slog.Debug("history: fetched series",
		"symbol", symbol, "bars", len(series.Bars), "range", rng, "interval", interval)
	return series, nil
}

// SearchSymbols resolves a free-text query to symbol matches.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s", c.baseURL, url.QueryEscape(query))

	var resp searchResponse
	if err := c.get(ctx, c.searchLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("history.SearchSymbols: %q: %w", query, err)
	}

	out := make([]domain.SymbolMatch, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		out = append(out, domain.SymbolMatch{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: q.Exchange,
			Type:     q.QuoteType,
		})
	}
	return out, nil
}

// get performs a rate-limited GET with retries and decodes JSON into out.
func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "simtrader/1.0")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("history: retrying request", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
