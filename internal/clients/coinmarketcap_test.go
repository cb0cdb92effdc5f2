package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCMC(handler http.HandlerFunc) (*CMCClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewCMCClient("test-cmc-key")
	c.quoteURL = srv.URL
	return c, srv
}

func TestCMCClient_Quotes(t *testing.T) {
	var gotSymbols, gotKey string
	c, srv := newTestCMC(func(w http.ResponseWriter, r *http.Request) {
		gotSymbols = r.URL.Query().Get("symbol")
		gotKey = r.Header.Get("X-CMC_PRO_API_KEY")
		w.Write([]byte(`{"data":{
			"BTC":{"quote":{"USD":{"price":60123.456789}}},
			"KAS":{"quote":{"USD":{"price":0.1234}}}
		}}`))
	})
	defer srv.Close()

	quotes, err := c.Quotes(context.Background(), []string{"BTC", "KAS"})
	require.NoError(t, err)

	assert.Equal(t, "BTC,KAS", gotSymbols)
	assert.Equal(t, "test-cmc-key", gotKey)
	require.Len(t, quotes, 2)
	assert.True(t, quotes["KAS"].Equal(decimal.RequireFromString("0.1234")))
}

func TestCMCClient_QuotesEmptyInput(t *testing.T) {
	called := false
	c, srv := newTestCMC(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	defer srv.Close()

	quotes, err := c.Quotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.False(t, called, "no request should go out for an empty symbol list")
}

func TestCMCClient_QuotesErrorStatus(t *testing.T) {
	c, srv := newTestCMC(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error_code":1001}}`, http.StatusUnauthorized)
	})
	defer srv.Close()

	_, err := c.Quotes(context.Background(), []string{"BTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
