// Package yahoo implements the market data provider backed by the
// Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"intraday-lab/internal/domain"
	"intraday-lab/internal/marketdata"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches bars from the Yahoo chart endpoint with client-side
// rate limiting and exponential-backoff retries.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	maxRetry   time.Duration
	log        zerolog.Logger
}

// ClientOptions holds options for creating a new Client. Zero fields
// take defaults.
type ClientOptions struct {
	Timeout         time.Duration // per-request timeout
	RequestsPerSec  int           // sustained request rate and burst
	MaxRetryElapsed time.Duration // total time budget for retries
	BaseURL         string        // override for tests
	Logger          *zerolog.Logger
}

// NewClient creates a Yahoo chart client.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryElapsed == 0 {
		opts.MaxRetryElapsed = 30 * time.Second
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		baseURL:    opts.BaseURL,
		maxRetry:   opts.MaxRetryElapsed,
		log:        logger,
	}
}

func (c *Client) Name() string { return "yahoo" }

// BarsByRange fetches bars with timestamps in [start, end).
func (c *Client) BarsByRange(ctx context.Context, symbol string, interval domain.Interval, start, end time.Time) ([]domain.Bar, error) {
	params := url.Values{}
	params.Set("interval", string(interval))
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	params.Set("period2", fmt.Sprintf("%d", end.Unix()))

	bars, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	// Yahoo treats period2 loosely; enforce the exclusive upper bound.
	for len(bars) > 0 && !bars[len(bars)-1].Time.Before(end) {
		bars = bars[:len(bars)-1]
	}
	return bars, nil
}

// BarsByPeriod fetches bars over a provider-relative lookback window.
func (c *Client) BarsByPeriod(ctx context.Context, symbol string, interval domain.Interval, period domain.Period) ([]domain.Bar, error) {
	params := url.Values{}
	params.Set("interval", string(interval))
	params.Set("range", string(period))
	return c.fetchChart(ctx, symbol, params)
}

// yahooChart is the response structure of the Yahoo chart API.
type yahooChart struct {
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
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (c *Client) fetchChart(ctx context.Context, symbol string, params url.Values) ([]domain.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]domain.Bar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		o := toFloat(quote.Open[i])
		h := toFloat(quote.High[i])
		l := toFloat(quote.Low[i])
		cl := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bars: halts, holidays
		}
		bars = append(bars, domain.Bar{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: toFloat(quote.Volume[i]),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	c.log.Debug().
		Str("symbol", symbol).
		Str("query", params.Encode()).
		Int("bars", len(bars)).
		Msg("yahoo chart fetched")

	return bars, nil
}

// do performs one HTTP request under the rate limiter, retrying
// transient failures with exponential backoff. Client errors other
// than 429 are not retried.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			statusErr := &marketdata.HTTPStatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = c.maxRetry

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}

	return resp, nil
}

var _ marketdata.Provider = (*Client)(nil)
