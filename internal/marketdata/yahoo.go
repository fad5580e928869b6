package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/gainers/pkg/httputil"
	"github.com/wonny/gainers/pkg/logger"
)

// HistoryProvider returns monthly adjusted-close history for one symbol.
// Failures are per-symbol: the caller skips the symbol and continues.
type HistoryProvider interface {
	MonthlyAdjClose(ctx context.Context, symbol string, months int) (PriceSeries, error)
}

// YahooClient fetches price history from the Yahoo Finance chart API.
type YahooClient struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewYahooClient creates a new Yahoo Finance history client.
func NewYahooClient(httpClient *httputil.Client, log *logger.Logger) *YahooClient {
	return &YahooClient{
		httpClient: httpClient,
		logger:     log,
		baseURL:    "https://query1.finance.yahoo.com",
	}
}

// WithBaseURL overrides the API host, used by tests.
func (c *YahooClient) WithBaseURL(base string) *YahooClient {
	c.baseURL = base
	return c
}

// chartResponse is the Yahoo Finance chart API payload.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// MonthlyAdjClose fetches months trailing months of monthly adjusted close.
// The raw bars are normalized to the month-end grid and clipped to the most
// recent months distinct entries.
func (c *YahooClient) MonthlyAdjClose(ctx context.Context, symbol string, months int) (PriceSeries, error) {
	period1, period2 := chartWindow(time.Now().UTC(), months)
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1mo&period1=%d&period2=%d",
		c.baseURL, url.PathEscape(symbol), period1, period2)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return PriceSeries{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PriceSeries{}, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PriceSeries{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return PriceSeries{}, fmt.Errorf("decode chart response: %w", err)
	}
	if chart.Chart.Error != nil {
		return PriceSeries{}, fmt.Errorf("chart API error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return PriceSeries{}, fmt.Errorf("no data returned for %s", symbol)
	}

	result := chart.Chart.Result[0]

	// Prefer the adjusted close indicator, fall back to the quote close
	var values []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0 {
		values = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		values = result.Indicators.Quote[0].Close
	}
	if len(values) == 0 {
		return PriceSeries{}, fmt.Errorf("no close values returned for %s", symbol)
	}

	raw := make([]Observation, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(values) || values[i] == nil || *values[i] <= 0 {
			continue // null bars (holidays, suspended months)
		}
		raw = append(raw, Observation{
			MonthEnd: time.Unix(ts, 0).UTC(),
			AdjClose: *values[i],
		})
	}

	series := PriceSeries{
		Symbol:       symbol,
		Observations: normalizeMonthly(raw, months),
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"months": len(series.Observations),
	}).Debug("Fetched monthly history")

	return series, nil
}

// chartWindow returns the explicit period1/period2 Unix bounds for a trailing
// month window. Explicit timestamps work for any month count, unlike the range
// parameter which only accepts a fixed set of values. One extra month of slack
// keeps a full months distinct month-ends available mid-month; normalizeMonthly
// clips to exactly months.
func chartWindow(now time.Time, months int) (int64, int64) {
	return now.AddDate(0, -months-1, 0).Unix(), now.Unix()
}
