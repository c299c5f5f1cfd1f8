package balance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const coingeckoAPI = "https://api.coingecko.com/api/v3"

// CoinGeckoClient quotes native-asset prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
}

// NewCoinGeckoClient creates a price client against the public API.
func NewCoinGeckoClient() *CoinGeckoClient {
	return NewCoinGeckoClientWithURL(coingeckoAPI)
}

// NewCoinGeckoClientWithURL creates a price client against a custom base URL.
func NewCoinGeckoClientWithURL(baseURL string) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Price returns the USD price for the given CoinGecko coin id.
func (c *CoinGeckoClient) Price(ctx context.Context, coinID string) (float64, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, coinID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build price request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch price: status %d", resp.StatusCode)
	}

	var quotes map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return 0, fmt.Errorf("decode price: %w", err)
	}

	quote, ok := quotes[coinID]
	if !ok {
		return 0, fmt.Errorf("no quote for %q", coinID)
	}
	return quote["usd"], nil
}
