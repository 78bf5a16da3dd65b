// Package bcb provides a client for the Banco Central do Brasil SGS API
package bcb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rfmachado/patrimonio/internal/common"
	"github.com/rfmachado/patrimonio/internal/interfaces"
	"github.com/rfmachado/patrimonio/internal/models"
)

const (
	DefaultBaseURL   = "https://api.bcb.gov.br"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 3 // requests per second

	// SGS series codes used by the benchmark normalizer.
	SeriesCDI  = 12  // daily CDI rate, % a.a.
	SeriesIPCA = 433 // monthly IPCA variation, %
)

// sgsDateFormat is the dd/MM/yyyy format the SGS API speaks.
const sgsDateFormat = "02/01/2006"

// Client implements RateSeriesClient against the SGS API.
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

// NewClient creates a new SGS client
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

// sgsObservation is one row of the SGS JSON payload. Values arrive as
// strings with a dot decimal separator.
type sgsObservation struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// GetSeries retrieves the observations of a numbered SGS series over [from, to].
func (c *Client) GetSeries(ctx context.Context, code int, from, to time.Time) ([]models.RatePoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("formato", "json")
	params.Set("dataInicial", from.Format(sgsDateFormat))
	params.Set("dataFinal", to.Format(sgsDateFormat))

	reqURL := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados?%s", c.baseURL, code, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Int("series", code).Msg("SGS API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("SGS API error: status %d, series %d: %s", resp.StatusCode, code, string(body))
	}

	var rows []sgsObservation
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	points := make([]models.RatePoint, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(sgsDateFormat, strings.TrimSpace(row.Data))
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row.Valor), 64)
		if err != nil {
			continue
		}
		points = append(points, models.RatePoint{Date: date.UTC(), Value: value})
	}

	c.logger.Debug().Int("series", code).Int("points", len(points)).Msg("SGS API response")
	return points, nil
}

// Ensure Client implements RateSeriesClient
var _ interfaces.RateSeriesClient = (*Client)(nil)
