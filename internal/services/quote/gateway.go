// Package quote unifies the two price sources behind one lookup.
package quote

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkochetov/cryptofolio/internal/domain"
)

// quoteCurrency is the market suffix of the exchange-native ticker source.
const quoteCurrency = "USDT"

// TickerSource lists last prices for all exchange markets, keyed by market
// name (e.g. "BTCUSDT"). No API key is required.
type TickerSource interface {
	TickerPrices(ctx context.Context) (map[string]decimal.Decimal, error)
}

// QuoteSource fetches USD quotes for a batch of symbols. Unknown symbols are
// absent from the result.
type QuoteSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// Gateway merges the exchange ticker source and the general-purpose quote API
// into one price lookup with source-priority fallback.
type Gateway struct {
	tickers TickerSource
	quotes  QuoteSource
	logger  *zap.Logger
}

// NewGateway creates a gateway over the two sources.
func NewGateway(tickers TickerSource, quotes QuoteSource, logger *zap.Logger) *Gateway {
	return &Gateway{tickers: tickers, quotes: quotes, logger: logger.Named("quote")}
}

// GetPrices resolves USD prices for the given symbols. The exchange ticker
// source is queried first and wins for the symbols it covers; the quote API
// fills the gaps in one batched call. A failing source degrades to a partial
// result and is logged; the gateway never fails the caller. Symbols neither
// source can resolve are absent from the returned table.
func (g *Gateway) GetPrices(ctx context.Context, symbols []string) domain.PriceTable {
	table := make(domain.PriceTable, len(symbols))

	markets, err := g.tickers.TickerPrices(ctx)
	if err != nil {
		g.logger.Warn("exchange ticker source unavailable", zap.Error(err))
	}

	var missing []string
	for _, sym := range symbols {
		if price, ok := markets[sym+quoteCurrency]; ok {
			table[sym] = price
		} else {
			missing = append(missing, sym)
		}
	}

	if len(missing) == 0 {
		return table
	}

	fallback, err := g.quotes.Quotes(ctx, missing)
	if err != nil {
		g.logger.Warn("fallback quote source unavailable", zap.Error(err), zap.Strings("symbols", missing))
		return table
	}
	for sym, price := range fallback {
		if _, ok := table[sym]; !ok {
			table[sym] = price
		}
	}

	return table
}
