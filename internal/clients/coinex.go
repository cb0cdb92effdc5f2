// Package clients contains the venue and chain clients used by the services.
package clients

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	coinexAPIBase   = "https://api.coinex.com/v2"
	coinexTickerURL = "https://api.coinex.com/v1/market/ticker/all"

	headerCoinexKey       = "X-COINEX-KEY"
	headerCoinexSign      = "X-COINEX-SIGN"
	headerCoinexTimestamp = "X-COINEX-TIMESTAMP"
)

// SpotBalance is one asset row of the exchange spot balance listing.
type SpotBalance struct {
	Ccy       string
	Available decimal.Decimal
}

// CoinexClient talks to the CoinEx REST API. Authenticated v2 requests are
// signed with HMAC-SHA256 over method+path+body+timestamp; the public v1
// ticker endpoint needs no key.
type CoinexClient struct {
	accessID  string
	secret    string
	baseURL   string
	tickerURL string
	http      *http.Client
}

// NewCoinexClient creates a client with the given credentials.
func NewCoinexClient(accessID, secret string) *CoinexClient {
	return &CoinexClient{
		accessID:  accessID,
		secret:    secret,
		baseURL:   coinexAPIBase,
		tickerURL: coinexTickerURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// sign produces the lowercase hex HMAC-SHA256 signature of
// method+path+body+timestamp.
func (c *CoinexClient) sign(method, path, body, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(method + path + body + timestamp))
	return strings.ToLower(hex.EncodeToString(mac.Sum(nil)))
}

// SpotBalances fetches the authenticated spot balance listing. Any non-200
// response or API-level error code is a hard failure for the call.
func (c *CoinexClient) SpotBalances(ctx context.Context) ([]SpotBalance, error) {
	const path = "/assets/spot/balance"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build coinex balance request")
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerCoinexKey, c.accessID)
	req.Header.Set(headerCoinexSign, c.sign(http.MethodGet, path, "", timestamp))
	req.Header.Set(headerCoinexTimestamp, timestamp)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "coinex balance request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read coinex balance response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("coinex balance request failed: status %d: %s", resp.StatusCode, raw)
	}

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    []struct {
			Ccy       string `json:"ccy"`
			Available string `json:"available"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrap(err, "decode coinex balance response")
	}
	if payload.Code != 0 {
		return nil, errors.Errorf("coinex balance request rejected: code %d: %s", payload.Code, payload.Message)
	}

	balances := make([]SpotBalance, 0, len(payload.Data))
	for _, row := range payload.Data {
		available, err := decimal.NewFromString(row.Available)
		if err != nil {
			return nil, errors.Wrapf(err, "parse available amount for %s", row.Ccy)
		}
		balances = append(balances, SpotBalance{Ccy: row.Ccy, Available: available})
	}
	return balances, nil
}

// TickerPrices fetches last prices for all markets from the public ticker
// endpoint, keyed by market name (e.g. "BTCUSDT").
func (c *CoinexClient) TickerPrices(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tickerURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build coinex ticker request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "coinex ticker request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("coinex ticker request failed: status %d", resp.StatusCode)
	}

	var payload struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Ticker map[string]struct {
				Last string `json:"last"`
			} `json:"ticker"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode coinex ticker response")
	}
	if payload.Code != 0 {
		return nil, errors.Errorf("coinex ticker request rejected: code %d: %s", payload.Code, payload.Message)
	}

	prices := make(map[string]decimal.Decimal, len(payload.Data.Ticker))
	for market, t := range payload.Data.Ticker {
		last, err := decimal.NewFromString(t.Last)
		if err != nil {
			return nil, errors.Wrapf(err, "parse last price for %s", market)
		}
		prices[market] = last
	}
	return prices, nil
}
