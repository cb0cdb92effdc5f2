package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainPosition_Amount(t *testing.T) {
	t.Run("18 decimals", func(t *testing.T) {
		raw, _ := new(big.Int).SetString("1500000000000000000", 10)
		p := NewChainPosition(NetworkEthereum, "ETH", "", raw, 18)

		assert.True(t, p.Amount().Equal(decimal.RequireFromString("1.5")))
		assert.Equal(t, "ETH", p.Display())
	})

	t.Run("8 decimals keeps full precision", func(t *testing.T) {
		p := NewChainPosition(NetworkEthereum, "BTC", "WBTC", big.NewInt(1), 8)

		assert.True(t, p.Amount().Equal(decimal.New(1, -8)))
		assert.Equal(t, "WBTC", p.Display())
	})

	t.Run("one base unit of an 18-decimal token is not zero", func(t *testing.T) {
		p := NewChainPosition(NetworkEthereum, "ETH", "", big.NewInt(1), 18)

		assert.False(t, p.Amount().IsZero())
		assert.True(t, p.Amount().Equal(decimal.New(1, -18)))
	})
}

func TestExchangePosition(t *testing.T) {
	p := NewExchangePosition(NetworkCoinex, "ada", decimal.RequireFromString("12.5"))

	// Venue listings are already in asset units.
	assert.Equal(t, "ADA", p.Symbol)
	assert.True(t, p.Scale.Equal(decimal.NewFromInt(1)))
	assert.True(t, p.Amount().Equal(decimal.RequireFromString("12.5")))
}

func TestSnapshot_RejectsDuplicates(t *testing.T) {
	s := NewPortfolioSnapshot(time.Now())

	require.NoError(t, s.Add(NewChainPosition(NetworkEthereum, "ETH", "", big.NewInt(1), 18)))
	require.NoError(t, s.Add(NewChainPosition(NetworkArbitrum, "ETH", "", big.NewInt(1), 18)))

	// Same network and symbol again means the collector failed to merge.
	err := s.Add(NewChainPosition(NetworkEthereum, "ETH", "", big.NewInt(2), 18))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ethereum/ETH")
	assert.Equal(t, 2, s.Len())
}

func TestSnapshot_Symbols(t *testing.T) {
	s := NewPortfolioSnapshot(time.Now())
	require.NoError(t, s.Add(NewChainPosition(NetworkEthereum, "ETH", "", big.NewInt(1), 18)))
	require.NoError(t, s.Add(NewChainPosition(NetworkArbitrum, "ETH", "", big.NewInt(1), 18)))
	require.NoError(t, s.Add(NewChainPosition(NetworkEthereum, "BTC", "WBTC", big.NewInt(1), 8)))

	assert.Equal(t, []string{"ETH", "BTC"}, s.Symbols())
}

func TestPriceTable_Lookup(t *testing.T) {
	table := PriceTable{
		"BTC": decimal.NewFromInt(60000),
	}

	price, ok := table.Price("BTC")
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(60000)))

	// Absence is a distinct state, not a zero price.
	_, ok = table.Price("DOGE")
	assert.False(t, ok)
}
