// Package finnhub provides a client for the Finnhub stock API.
// The proxy uses it for real-time quotes and for the basic-financials
// metrics that back the short-interest and dark-pool routes.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"

	// A single unresponsive upstream must not stall the handling pipeline,
	// so every call is bounded by a short timeout.
	requestTimeout = 2 * time.Second
)

// Client is the Finnhub API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new Finnhub client.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log.With().Str("client", "finnhub").Logger(),
	}
}

// HasAPIKey reports whether the client was configured with an API key.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// UpstreamError is returned when Finnhub answers with a non-2xx status.
// The router forwards the status code when no cached fallback exists.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("finnhub returned status %d", e.StatusCode)
}

// Quote fetches the raw quote JSON for symbol. The body is passed through
// to callers untouched, so it is returned as bytes rather than decoded.
func (c *Client) Quote(ctx context.Context, symbol string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("symbol", symbol).
			Msg("Quote endpoint returned non-200 status")
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	// Sanity-check that the upstream sent JSON before caching it.
	if !json.Valid(body) {
		return nil, fmt.Errorf("quote response is not valid JSON")
	}

	return body, nil
}

// Metrics holds the subset of Finnhub's basic-financials metrics the proxy
// consumes. Absent metrics are nil.
type Metrics struct {
	ShortPercentFloat      *float64
	ShortInterestDTC       *float64
	InstitutionalOwnership *float64
}

// metricResponse mirrors the shape of /stock/metric?metric=all.
type metricResponse struct {
	Metric map[string]json.Number `json:"metric"`
}

// StockMetrics fetches basic-financials metrics for symbol.
func (c *Client) StockMetrics(ctx context.Context, symbol string) (*Metrics, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("finnhub API key not configured")
	}

	endpoint := fmt.Sprintf("%s/stock/metric?symbol=%s&metric=all&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("symbol", symbol).
			Msg("Metrics endpoint returned non-200 status")
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var decoded metricResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse metrics response: %w", err)
	}

	m := &Metrics{
		ShortPercentFloat:      numberField(decoded.Metric, "shortInterestSharePercent"),
		ShortInterestDTC:       numberField(decoded.Metric, "shortInterestDaysToCover"),
		InstitutionalOwnership: numberField(decoded.Metric, "institutionalOwnershipPercent"),
	}
	return m, nil
}

func numberField(metrics map[string]json.Number, key string) *float64 {
	n, ok := metrics[key]
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return &f
}
