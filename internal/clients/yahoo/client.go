// Package yahoo provides a client for the Yahoo Finance chart API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the QuoteClient interface against the Yahoo chart API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo chart API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yahoo chart API error: %s (status: %d, symbol: %s)", e.Message, e.StatusCode, e.Symbol)
}

// chartResponse mirrors the subset of the chart API payload the engine uses.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetDailyHistory retrieves daily close points for a symbol over [from, to].
func (c *Client) GetDailyHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PricePoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	// period2 is exclusive; extend by a day so the last requested day is included
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "patrimonio/1.0")

	c.logger.Debug().Str("symbol", symbol).Msg("Yahoo chart API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Unknown symbols come back as 404 — "no data", not an error worth raising
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body), Symbol: symbol}
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: parsed.Chart.Error.Description, Symbol: symbol}
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // market holiday / missing bar
		}
		day := time.Unix(ts, 0).UTC().Truncate(24 * time.Hour)
		p := models.PricePoint{Symbol: symbol, Date: day, Close: *closes[i]}
		if !p.Valid() {
			continue
		}
		points = append(points, p)
	}

	c.logger.Debug().Str("symbol", symbol).Int("points", len(points)).Msg("Yahoo chart API response")
	return points, nil
}

// GetLatest returns the most recent close for a symbol, looking back up to
// ten calendar days to span weekends and holidays.
func (c *Client) GetLatest(ctx context.Context, symbol string) (models.PricePoint, error) {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	points, err := c.GetDailyHistory(ctx, symbol, now.AddDate(0, 0, -10), now)
	if err != nil {
		return models.PricePoint{}, err
	}
	if len(points) == 0 {
		return models.PricePoint{}, models.ErrNoPriceData
	}
	return points[len(points)-1], nil
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)
