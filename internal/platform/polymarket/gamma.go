// Package polymarket implements the source adapter for the Polymarket
// Gamma API, which provides market discovery and metadata.
package polymarket

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

// DefaultGammaURL is the production Gamma API root.
const DefaultGammaURL = "https://gamma-api.polymarket.com"

const requestTimeout = 30 * time.Second

// GammaClient is the REST client for the Polymarket Gamma API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client. An empty baseURL
// selects the production API.
func NewGammaClient(baseURL string) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaURL
	}
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// GetMarkets returns a page of markets. When activeOnly is set, closed
// markets are excluded upstream.
func (g *GammaClient) GetMarkets(ctx context.Context, limit, offset int, activeOnly bool) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if activeOnly {
		params.Set("closed", "false")
	}

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	return apiMarkets, nil
}

// GetMarket returns a single market by its Gamma ID. It returns an error
// wrapping domain.ErrNotFound when the ID does not exist.
func (g *GammaClient) GetMarket(ctx context.Context, id string) (APIMarket, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(id))

	body, err := g.doGet(ctx, path)
	if err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: get market %s: %w", id, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return APIMarket{}, fmt.Errorf("polymarket/gamma: decode market: %w", err)
	}

	return apiMarket, nil
}

// doGet builds, sends, and reads an HTTP GET against the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
