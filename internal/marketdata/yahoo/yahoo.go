// Package yahoo fetches daily OHLCV bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"stockanalysis/internal/model"
)

// DefaultBaseURL is the public chart endpoint.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures the client.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client implements model.MarketData.
type Client struct {
	doer    Doer
	baseURL string
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a client backed by an http.Client with cfg.Timeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewWithDoer(&http.Client{Timeout: timeout}, cfg)
}

// NewWithDoer creates a client that sends requests through d.
func NewWithDoer(d Doer, cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 5
	}
	return &Client{
		doer:    d,
		baseURL: base,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		now:     time.Now,
	}
}

// chartResponse is the subset of the chart API reply we read. Quote values
// are pointers because Yahoo emits null for sessions without trades.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol       string `json:"symbol"`
				Currency     string `json:"currency"`
				ExchangeName string `json:"exchangeName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchOHLCV returns the daily bars of the last days calendar days for
// symbolVariant. An unknown symbol yields an empty series and a nil error so
// the caller can move on to the next variant.
func (c *Client) FetchOHLCV(ctx context.Context, symbolVariant string, days int) (*model.Series, error) {
	if days <= 0 {
		days = 90
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	to := c.now().UTC()
	from := to.AddDate(0, 0, -days)
	u := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d&events=history",
		c.baseURL, url.PathEscape(symbolVariant), from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", uuid.NewString())
	req.Header.Set("Accept", "application/json")

	res, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbolVariant, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	series := &model.Series{Symbol: symbolVariant, Variant: symbolVariant}
	if res.StatusCode == http.StatusNotFound {
		return series, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d", symbolVariant, res.StatusCode)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return series, nil
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return series, nil
	}

	result := chart.Chart.Result[0]
	series.Currency = result.Meta.Currency
	series.Exchange = result.Meta.ExchangeName
	if len(result.Indicators.Quote) == 0 {
		return series, nil
	}
	q := result.Indicators.Quote[0]

	series.Bars = make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, cl := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue // no trades (holiday, suspended session)
		}
		var vol int64
		if v := at(q.Volume, i); v != nil {
			vol = int64(math.Round(*v))
		}
		t := time.Unix(ts, 0).UTC()
		series.Bars = append(series.Bars, model.Bar{
			Date:   time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Open:   *o,
			High:   *h,
			Low:    *l,
			Close:  *cl,
			Volume: vol,
		})
	}
	series.Normalize()
	return series, nil
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

var _ model.MarketData = (*Client)(nil)
