// Package valuation joins balances, live prices and cost-basis records into
// report rows with derived profit/loss metrics.
package valuation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dkochetov/cryptofolio/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// CostResolver supplies the recorded invested amount for a pricing symbol.
type CostResolver interface {
	InvestedAmount(symbol string) decimal.Decimal
}

// Row is one valued position of a report.
type Row struct {
	Network string
	Symbol  string
	Amount  decimal.Decimal
	// Priced is false while no quote for the symbol exists yet. Unpriced rows
	// are valued at zero and must not be rendered with a defined PnL.
	Priced   bool
	Price    decimal.Decimal
	Value    decimal.Decimal
	Invested decimal.Decimal
	PnL      decimal.Decimal
	// PnLPercent carries the 100% sentinel when Invested is zero.
	PnLPercent decimal.Decimal
	Multiple   decimal.Decimal
	// Alarm marks a priced position currently at a loss.
	Alarm bool
}

// Totals is the aggregate row of a report.
type Totals struct {
	Invested   decimal.Decimal
	Value      decimal.Decimal
	PnL        decimal.Decimal
	PnLPercent decimal.Decimal
	Multiple   decimal.Decimal
}

// Engine computes report rows. The reserve symbol is priced at 1 by
// definition and never looked up.
type Engine struct {
	reserve string
}

// NewEngine creates an engine with the given reserve (stablecoin) symbol.
func NewEngine(reserveSymbol string) *Engine {
	return &Engine{reserve: strings.ToUpper(reserveSymbol)}
}

// Valuate joins positions with the price table and cost-basis resolver.
// All arithmetic is decimal; only the human-facing figures are rounded
// (percent and multiple to 2 digits here, value at render time).
func (e *Engine) Valuate(positions []domain.AssetPosition, prices domain.PriceTable, resolver CostResolver) ([]Row, Totals) {
	rows := make([]Row, 0, len(positions))
	var totals Totals

	for _, p := range positions {
		price, priced := prices.Price(p.Symbol)
		if strings.ToUpper(p.Symbol) == e.reserve {
			price, priced = decimal.New(1, 0), true
		}

		invested := resolver.InvestedAmount(p.Symbol)

		// Unpriced positions are valued at zero until the first refresh
		// covering them completes.
		value := decimal.Zero
		if priced {
			value = price.Mul(p.Raw).Div(p.Scale)
		}
		pnl := value.Sub(invested)

		row := Row{
			Network:  p.Network,
			Symbol:   p.Display(),
			Amount:   p.Amount(),
			Priced:   priced,
			Price:    price,
			Value:    value,
			Invested: invested,
			PnL:      pnl,
			Alarm:    priced && pnl.IsNegative(),
		}
		row.PnLPercent, row.Multiple = ratios(pnl, value, invested, true)

		rows = append(rows, row)

		totals.Invested = totals.Invested.Add(invested)
		totals.Value = totals.Value.Add(value)
		totals.PnL = totals.PnL.Add(pnl)
	}

	totals.PnLPercent, totals.Multiple = ratios(totals.PnL, totals.Value, totals.Invested, false)
	return rows, totals
}

// ratios computes pnl percent and multiple with the zero-invested guard.
// Per-position rows use the 100% sentinel for zero cost basis; the totals row
// degrades to 0% so an all-unmatched portfolio never divides by zero.
func ratios(pnl, value, invested decimal.Decimal, sentinel bool) (percent, multiple decimal.Decimal) {
	if invested.IsZero() {
		if sentinel {
			return hundred, decimal.Zero
		}
		return decimal.Zero, decimal.Zero
	}
	percent = pnl.Div(invested).Mul(hundred).Round(2)
	multiple = value.Div(invested).Round(2)
	return percent, multiple
}
