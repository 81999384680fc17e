// Package kalshi implements the source adapter for the Kalshi exchange
// REST API.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oddsradar/oddsradar/internal/domain"
)

// DefaultBaseURL is the production Kalshi trade API root.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

const requestTimeout = 30 * time.Second

// Client is the REST client for the public Kalshi market-data endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Kalshi REST client. An empty baseURL selects
// the production API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// GetMarkets returns a page of Kalshi markets plus the pagination cursor
// for the next page. status maps directly onto Kalshi's status query
// parameter ("open", "closed", "settled").
func (c *Client) GetMarkets(ctx context.Context, limit int, cursor, status string) ([]KalshiMarket, string, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	if status != "" {
		params.Set("status", status)
	}

	path := "/markets"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp struct {
		Markets []KalshiMarket `json:"markets"`
		Cursor  string         `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}

	return resp.Markets, resp.Cursor, nil
}

// GetMarket returns a single market by its ticker. It returns an error
// wrapping domain.ErrNotFound when the ticker does not exist.
func (c *Client) GetMarket(ctx context.Context, ticker string) (KalshiMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(ticker))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return KalshiMarket{}, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}

	var resp struct {
		Market KalshiMarket `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return KalshiMarket{}, fmt.Errorf("kalshi: decode market: %w", err)
	}

	return resp.Market, nil
}

// GetMarketHistory returns the historical series for a market ticker.
func (c *Client) GetMarketHistory(ctx context.Context, ticker string, limit int) ([]KalshiHistoryPoint, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := fmt.Sprintf("/markets/%s/history", url.PathEscape(ticker))
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("kalshi: get market history %s: %w", ticker, err)
	}

	var resp struct {
		History []KalshiHistoryPoint `json:"history"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("kalshi: decode market history: %w", err)
	}

	return resp.History, nil
}

// doGet builds, sends, and reads an HTTP GET against the Kalshi API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// kalshiError is the error envelope returned by the API.
type kalshiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// checkStatus maps non-2xx HTTP status codes to errors. 404 wraps
// domain.ErrNotFound so callers can detect absent records with errors.Is.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr kalshiError
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
