package domain

import "github.com/shopspring/decimal"

// PriceTable maps a pricing symbol to its last known USD price. A table is the
// result of one quote gateway call and is published wholesale: readers always
// observe a complete table, never a partially refreshed one.
type PriceTable map[string]decimal.Decimal

// Price looks up the USD price for a symbol. The second return reports whether
// the symbol was quoted at all; callers must not treat absence as zero.
func (t PriceTable) Price(symbol string) (decimal.Decimal, bool) {
	p, ok := t[symbol]
	return p, ok
}
