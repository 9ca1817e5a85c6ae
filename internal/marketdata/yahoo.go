package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/models"
	"twstock-analyst/pkg/utils"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient implements Gateway against the Yahoo Finance chart API.
// Transport retries live here, in the collaborator; the core pipeline
// never retries.
type YahooClient struct {
	client  *http.Client
	baseURL string
	retry   utils.RetryConfig
	logger  zerolog.Logger
}

// YahooOption configures a YahooClient.
type YahooOption func(*YahooClient)

// WithBaseURL overrides the chart API host.
func WithBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) YahooOption {
	return func(c *YahooClient) { c.client = client }
}

// WithRetry overrides the transport retry policy.
func WithRetry(cfg utils.RetryConfig) YahooOption {
	return func(c *YahooClient) { c.retry = cfg }
}

// NewYahooClient creates a Yahoo chart API gateway.
func NewYahooClient(logger zerolog.Logger, opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultYahooBaseURL,
		retry:   utils.DefaultRetryConfig(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chartResponse mirrors the v8/finance/chart payload.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// chartQuote carries the gateway's column vocabulary. Field names are
// normalized into models.Candle here; nothing downstream sees raw
// gateway columns.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// Fetch downloads the trailing window of daily candles for symbol.
// Empty results, gateway errors, and series shorter than 2 rows all
// surface as the same DataError condition.
func (c *YahooClient) Fetch(ctx context.Context, symbol string, windowDays int) (*models.MarketSeries, error) {
	if windowDays < 2 {
		return nil, errors.NewDataError(symbol, fmt.Sprintf("window of %d days too short", windowDays), nil)
	}

	now := time.Now()
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.baseURL, url.PathEscape(symbol), url.Values{
			"interval": {"1d"},
			"period1":  {fmt.Sprintf("%d", now.AddDate(0, 0, -windowDays).Unix())},
			"period2":  {fmt.Sprintf("%d", now.Unix())},
		}.Encode())

	body, err := utils.RetryWithResult(ctx, c.retry, func() ([]byte, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, errors.NewDataError(symbol, "fetching chart data", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.NewDataError(symbol, "decoding chart response", err)
	}
	if parsed.Chart.Error != nil {
		return nil, errors.NewDataError(symbol,
			fmt.Sprintf("gateway error %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description), nil)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, errors.NewDataError(symbol, "empty chart result", nil)
	}

	series, err := buildSeries(symbol, parsed.Chart.Result[0])
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Str("symbol", symbol).Int("rows", series.Len()).Msg("Fetched market series")
	return series, nil
}

func (c *YahooClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "twstock-analyst/0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// buildSeries converts one chart result into a normalized series.
// Rows with missing values are dropped rather than zero-filled; a
// resulting series shorter than 2 rows is a DataError.
func buildSeries(symbol string, result chartResult) (*models.MarketSeries, error) {
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.NewDataError(symbol, "no quote data in chart result", nil)
	}
	quote := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}
		candles = append(candles, models.Candle{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: *quote.Volume[i],
		})
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Date.Before(candles[j].Date)
	})

	if len(candles) < 2 {
		return nil, errors.NewDataError(symbol,
			fmt.Sprintf("series has %d rows, need at least 2", len(candles)), nil)
	}

	return &models.MarketSeries{Symbol: symbol, Candles: candles}, nil
}
