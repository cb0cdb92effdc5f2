package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const cmcQuotesURL = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/quotes/latest"

// CMCClient fetches USD quotes from the CoinMarketCap pro API.
type CMCClient struct {
	apiKey   string
	quoteURL string
	http     *http.Client
}

// NewCMCClient creates a client authenticated with the given API key.
func NewCMCClient(apiKey string) *CMCClient {
	return &CMCClient{
		apiKey:   apiKey,
		quoteURL: cmcQuotesURL,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Quotes fetches USD prices for the given symbols in a single batched call.
// Symbols unknown to CoinMarketCap are simply absent from the result.
func (c *CMCClient) Quotes(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	q := url.Values{}
	q.Set("symbol", strings.Join(symbols, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.quoteURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build coinmarketcap request")
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "coinmarketcap request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("coinmarketcap request failed: status %d", resp.StatusCode)
	}

	var payload struct {
		Data map[string]struct {
			Quote struct {
				USD struct {
					Price decimal.Decimal `json:"price"`
				} `json:"USD"`
			} `json:"quote"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode coinmarketcap response")
	}

	quotes := make(map[string]decimal.Decimal, len(payload.Data))
	for symbol, entry := range payload.Data {
		quotes[symbol] = entry.Quote.USD.Price
	}
	return quotes, nil
}
