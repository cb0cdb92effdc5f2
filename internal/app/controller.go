// Package app wires the portfolio services into an interactive session: a
// foreground command loop and a background price refresh task sharing the
// snapshot and price caches.
package app

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkochetov/cryptofolio/config"
	"github.com/dkochetov/cryptofolio/internal/domain"
	"github.com/dkochetov/cryptofolio/internal/report"
	"github.com/dkochetov/cryptofolio/internal/services/valuation"
	"github.com/dkochetov/cryptofolio/internal/store"
)

// State is the session controller lifecycle state.
type State int32

const (
	// StateIdle means no balances have been collected yet.
	StateIdle State = iota
	// StateBalancesLoading means a collection pass is in flight.
	StateBalancesLoading
	// StateReady means a snapshot exists and reports can be produced.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBalancesLoading:
		return "balances-loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ErrNotReady is returned for report requests before balances are loaded.
var ErrNotReady = errors.New("no balances loaded yet, refresh balances first")

type balanceCollector interface {
	CollectChains(ctx context.Context) *domain.PortfolioSnapshot
	CollectExchange(ctx context.Context) ([]domain.AssetPosition, error)
}

type priceSource interface {
	GetPrices(ctx context.Context, symbols []string) domain.PriceTable
}

type costSource interface {
	InvestedAmount(symbol string) decimal.Decimal
	Reload() error
}

type sheetDownloader interface {
	Download(ctx context.Context) error
}

// Controller coordinates the foreground command handlers with the background
// price refresh task. The snapshot and price caches are the only shared state;
// both are replaced wholesale, never mutated in place.
type Controller struct {
	cfg       *config.Config
	collector balanceCollector
	prices    priceSource
	costs     costSource
	sheets    sheetDownloader
	engine    *valuation.Engine
	renderer  *report.Renderer
	logger    *zap.Logger

	state           atomic.Int32
	snapshot        store.Store[domain.PortfolioSnapshot]
	priceTable      store.Store[domain.PriceTable]
	exchangeSymbols store.Store[[]string]
}

// NewController wires the services together.
func NewController(
	cfg *config.Config,
	collector balanceCollector,
	prices priceSource,
	costs costSource,
	sheets sheetDownloader,
	renderer *report.Renderer,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		cfg:       cfg,
		collector: collector,
		prices:    prices,
		costs:     costs,
		sheets:    sheets,
		engine:    valuation.NewEngine(cfg.ReserveSymbol),
		renderer:  renderer,
		logger:    logger.Named("session"),
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// RefreshBalances runs a full on-chain collection pass and replaces the
// snapshot wholesale. It is deliberately manual: balance queries are expensive
// compared to price polls.
func (c *Controller) RefreshBalances(ctx context.Context) {
	c.state.Store(int32(StateBalancesLoading))
	started := time.Now()

	snapshot := c.collector.CollectChains(ctx)
	c.snapshot.Replace(snapshot)
	c.state.Store(int32(StateReady))

	c.logger.Info("balances refreshed",
		zap.Int("positions", snapshot.Len()),
		zap.Duration("took", time.Since(started)))
}

// StartPriceRefresh launches the background refresh task on the configured
// interval. The returned channel is closed when the task has acknowledged
// cancellation; callers must wait on it before process exit so no in-flight
// request logs after shutdown.
func (c *Controller) StartPriceRefresh(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(c.cfg.RefreshInterval)
		defer ticker.Stop()

		c.logger.Info("price refresh started", zap.Duration("interval", c.cfg.RefreshInterval))
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("price refresh stopped")
				return
			case <-ticker.C:
				c.refreshPrices(ctx)
			}
		}
	}()

	return done
}

func (c *Controller) refreshPrices(ctx context.Context) {
	symbols := c.symbolUniverse()
	if len(symbols) == 0 {
		c.logger.Debug("no symbols to price yet, skipping refresh tick")
		return
	}

	table := c.prices.GetPrices(ctx, symbols)
	c.priceTable.Replace(&table)
	c.logger.Debug("price table refreshed",
		zap.Int("requested", len(symbols)),
		zap.Int("resolved", len(table)))
}

// symbolUniverse is the set of symbols the refresh task keeps quoted: the
// snapshot's symbols, the symbols seen in the last exchange listing and the
// configured extras. The reserve symbol is excluded, its price is 1 by
// definition.
func (c *Controller) symbolUniverse() []string {
	uniq := make(map[string]struct{})
	if snapshot, ok := c.snapshot.Load(); ok {
		for _, sym := range snapshot.Symbols() {
			uniq[sym] = struct{}{}
		}
	}
	if symbols, ok := c.exchangeSymbols.Load(); ok {
		for _, sym := range *symbols {
			uniq[sym] = struct{}{}
		}
	}
	for _, sym := range c.cfg.ExtraSymbols {
		uniq[sym] = struct{}{}
	}
	delete(uniq, c.cfg.ReserveSymbol)

	out := make([]string, 0, len(uniq))
	for sym := range uniq {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// currentPrices returns the latest published table, empty before the first
// refresh completes.
func (c *Controller) currentPrices() domain.PriceTable {
	if table, ok := c.priceTable.Load(); ok {
		return *table
	}
	return domain.PriceTable{}
}

// ReportOnChain renders the on-chain holdings report from the current caches.
// It performs no I/O besides cost-basis lookups.
func (c *Controller) ReportOnChain(ctx context.Context) error {
	if c.State() != StateReady {
		return ErrNotReady
	}
	snapshot, ok := c.snapshot.Load()
	if !ok {
		return ErrNotReady
	}

	rows, totals := c.engine.Valuate(snapshot.Positions(), c.currentPrices(), c.costs)
	c.renderer.Render("ON-CHAIN HOLDINGS", rows, totals)
	return nil
}

// ReportExchange fetches the live exchange balance listing and renders it
// against the current price cache. The symbols seen are recorded so the next
// refresh tick quotes them.
func (c *Controller) ReportExchange(ctx context.Context) error {
	if c.State() != StateReady {
		return ErrNotReady
	}

	positions, err := c.collector.CollectExchange(ctx)
	if err != nil {
		return errors.Wrap(err, "exchange report")
	}
	c.recordExchangeSymbols(positions)

	rows, totals := c.engine.Valuate(positions, c.currentPrices(), c.costs)
	c.renderer.Render("EXCHANGE HOLDINGS", rows, totals)
	return nil
}

// ReportCombined renders on-chain and exchange holdings in one table.
func (c *Controller) ReportCombined(ctx context.Context) error {
	if c.State() != StateReady {
		return ErrNotReady
	}
	snapshot, ok := c.snapshot.Load()
	if !ok {
		return ErrNotReady
	}

	exchange, err := c.collector.CollectExchange(ctx)
	if err != nil {
		return errors.Wrap(err, "combined report")
	}
	c.recordExchangeSymbols(exchange)

	positions := append(append([]domain.AssetPosition{}, snapshot.Positions()...), exchange...)
	rows, totals := c.engine.Valuate(positions, c.currentPrices(), c.costs)
	c.renderer.Render("COMBINED HOLDINGS", rows, totals)
	return nil
}

// RefreshCostBasis re-downloads the published sheet and reloads the resolver.
func (c *Controller) RefreshCostBasis(ctx context.Context) error {
	if err := c.sheets.Download(ctx); err != nil {
		return err
	}
	return errors.Wrap(c.costs.Reload(), "reload cost-basis table")
}

func (c *Controller) recordExchangeSymbols(positions []domain.AssetPosition) {
	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	c.exchangeSymbols.Replace(&symbols)
}
