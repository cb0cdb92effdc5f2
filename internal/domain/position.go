// Package domain defines the core data structures shared by the portfolio services.
package domain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Well-known network and venue names used by the collector and reports.
const (
	NetworkEthereum = "ethereum"
	NetworkArbitrum = "arbitrum"
	NetworkBinance  = "binance"
	NetworkBase     = "base"
	NetworkSolana   = "solana"
	NetworkCoinex   = "coinex"
)

// AssetPosition is one holding of one asset on one network or venue.
type AssetPosition struct {
	// Network names the chain or venue the balance lives on.
	Network string
	// Symbol is the canonical ticker used for pricing and cost-basis matching.
	// Wrapped assets are recorded under their underlying symbol here.
	Symbol string
	// DisplaySymbol is the ticker shown in reports when it differs from the
	// pricing symbol (e.g. WBTC priced as BTC). Empty means Symbol.
	DisplaySymbol string
	// Raw is the balance in the smallest unit of the asset (wei, lamports,
	// token units). Exchange balances are already human-scaled and carry Scale 1.
	Raw decimal.Decimal
	// Scale divides Raw into human units, 10^decimals for chain assets.
	Scale decimal.Decimal
}

// NewChainPosition builds a position from an on-chain integer balance and its
// decimal scale. Raw and Scale are always set together.
func NewChainPosition(network, symbol, displaySymbol string, raw *big.Int, decimals int32) AssetPosition {
	return AssetPosition{
		Network:       network,
		Symbol:        symbol,
		DisplaySymbol: displaySymbol,
		Raw:           decimal.NewFromBigInt(raw, 0),
		Scale:         decimal.New(1, decimals),
	}
}

// NewExchangePosition builds a position from an exchange "available" amount,
// which is already expressed in human units. The ticker is uppercased so it
// matches price and cost-basis lookups regardless of how the venue spells it.
func NewExchangePosition(venue, symbol string, available decimal.Decimal) AssetPosition {
	return AssetPosition{
		Network: venue,
		Symbol:  strings.ToUpper(symbol),
		Raw:     available,
		Scale:   decimal.New(1, 0),
	}
}

// Display returns the ticker to render for this position.
func (p AssetPosition) Display() string {
	if p.DisplaySymbol != "" {
		return p.DisplaySymbol
	}
	return p.Symbol
}

// Amount converts the raw balance to human units.
func (p AssetPosition) Amount() decimal.Decimal {
	return p.Raw.Div(p.Scale)
}
