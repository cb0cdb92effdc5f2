// Package costbasis resolves recorded invested amounts for asset symbols from
// the externally maintained cost-basis sheet.
package costbasis

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkochetov/cryptofolio/internal/store"
)

// Column headers the sheet export must carry. Matching is case-insensitive.
const (
	tickerColumn = "ticker"
	amountColumn = "amount"
)

// Resolver maps a reported asset symbol to its recorded invested USD amount.
// The loaded table is replaced wholesale on reload; lookups are pure reads.
type Resolver struct {
	path    string
	aliases map[string]string
	reserve string
	table   store.Store[map[string]decimal.Decimal]
	logger  *zap.Logger
}

// NewResolver creates a resolver over the CSV at path. aliases remaps a
// reported ticker to the ticker recorded in the sheet before lookup; reserve
// names the account-native asset whose invested amount is pinned to zero.
// An unreadable or malformed file is not fatal: the resolver reports zero for
// every symbol until a successful reload.
func NewResolver(path string, aliases map[string]string, reserve string, logger *zap.Logger) *Resolver {
	r := &Resolver{
		path:    path,
		aliases: aliases,
		reserve: strings.ToUpper(reserve),
		logger:  logger.Named("costbasis"),
	}
	if err := r.Reload(); err != nil {
		r.logger.Warn("cost-basis source unavailable, reporting zero invested amounts", zap.Error(err))
	}
	return r
}

// Reload re-reads the CSV and replaces the in-memory table wholesale.
func (r *Resolver) Reload() error {
	table, err := loadTable(r.path)
	if err != nil {
		return err
	}
	r.table.Replace(&table)
	r.logger.Info("cost-basis table loaded", zap.Int("rows", len(table)))
	return nil
}

// InvestedAmount returns the recorded invested amount for symbol, zero when no
// row matches. The reserve asset is pinned to zero even if a row matches it:
// it is the gas/reserve holding, not a tracked investment.
func (r *Resolver) InvestedAmount(symbol string) decimal.Decimal {
	symbol = strings.ToUpper(symbol)
	if symbol == r.reserve {
		return decimal.Zero
	}
	if mapped, ok := r.aliases[symbol]; ok {
		symbol = strings.ToUpper(mapped)
	}

	table, ok := r.table.Load()
	if !ok {
		return decimal.Zero
	}
	if amount, ok := (*table)[symbol]; ok {
		return amount
	}
	return decimal.Zero
}

func loadTable(path string) (map[string]decimal.Decimal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open cost-basis file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read cost-basis header")
	}

	tickerIdx, amountIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case tickerColumn:
			tickerIdx = i
		case amountColumn:
			amountIdx = i
		}
	}
	if tickerIdx < 0 || amountIdx < 0 {
		return nil, errors.Errorf("cost-basis header misses Ticker/Amount columns: %v", header)
	}

	table := make(map[string]decimal.Decimal)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read cost-basis rows")
	}
	for _, rec := range records {
		if len(rec) <= tickerIdx || len(rec) <= amountIdx {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(rec[tickerIdx]))
		if ticker == "" {
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(rec[amountIdx]))
		if err != nil {
			// One bad row must not discard the rest of the sheet.
			continue
		}
		table[ticker] = amount
	}
	return table, nil
}
