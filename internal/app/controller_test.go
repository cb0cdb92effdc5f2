package app

import (
	"bytes"
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkochetov/cryptofolio/config"
	"github.com/dkochetov/cryptofolio/internal/domain"
	"github.com/dkochetov/cryptofolio/internal/report"
)

type fakeCollector struct {
	snapshot    *domain.PortfolioSnapshot
	exchange    []domain.AssetPosition
	exchangeErr error
	chainCalls  int
}

func (f *fakeCollector) CollectChains(context.Context) *domain.PortfolioSnapshot {
	f.chainCalls++
	return f.snapshot
}

func (f *fakeCollector) CollectExchange(context.Context) ([]domain.AssetPosition, error) {
	return f.exchange, f.exchangeErr
}

type fakePrices struct {
	table domain.PriceTable
	calls [][]string
}

func (f *fakePrices) GetPrices(_ context.Context, symbols []string) domain.PriceTable {
	f.calls = append(f.calls, symbols)
	return f.table
}

type fakeCosts struct {
	reloads   int
	reloadErr error
}

func (f *fakeCosts) InvestedAmount(string) decimal.Decimal { return decimal.Zero }

func (f *fakeCosts) Reload() error {
	f.reloads++
	return f.reloadErr
}

type fakeSheets struct {
	downloads int
	err       error
}

func (f *fakeSheets) Download(context.Context) error {
	f.downloads++
	return f.err
}

func testSnapshot(t *testing.T) *domain.PortfolioSnapshot {
	t.Helper()
	snapshot := domain.NewPortfolioSnapshot(time.Now())
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	require.NoError(t, snapshot.Add(domain.NewChainPosition(domain.NetworkBinance, "BNB", "", new(big.Int).Mul(big.NewInt(5), e18), 18)))
	require.NoError(t, snapshot.Add(domain.NewChainPosition(domain.NetworkEthereum, "ETH", "", e18, 18)))
	return snapshot
}

func newTestController(t *testing.T, coll *fakeCollector, prices *fakePrices) (*Controller, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		RefreshInterval: 5 * time.Millisecond,
		ReserveSymbol:   "USDT",
	}
	var out bytes.Buffer
	c := NewController(cfg, coll, prices, &fakeCosts{}, &fakeSheets{}, report.NewRenderer(&out), zap.NewNop())
	return c, &out
}

func TestController_ReportsRequireReadyState(t *testing.T) {
	c, _ := newTestController(t, &fakeCollector{}, &fakePrices{})

	assert.Equal(t, StateIdle, c.State())
	assert.ErrorIs(t, c.ReportOnChain(context.Background()), ErrNotReady)
	assert.ErrorIs(t, c.ReportExchange(context.Background()), ErrNotReady)
	assert.ErrorIs(t, c.ReportCombined(context.Background()), ErrNotReady)
}

func TestController_RefreshBalancesThenReport(t *testing.T) {
	coll := &fakeCollector{snapshot: testSnapshot(t)}
	prices := &fakePrices{table: domain.PriceTable{"BNB": decimal.NewFromInt(600)}}
	c, out := newTestController(t, coll, prices)

	c.RefreshBalances(context.Background())
	assert.Equal(t, StateReady, c.State())

	// Feed the price cache once, as the background task would.
	c.refreshPrices(context.Background())

	require.NoError(t, c.ReportOnChain(context.Background()))
	assert.Contains(t, out.String(), "BNB")
	assert.Contains(t, out.String(), "TOTAL")
}

func TestController_RefreshSkipsWithoutSymbols(t *testing.T) {
	prices := &fakePrices{}
	c, _ := newTestController(t, &fakeCollector{}, prices)

	// No snapshot, no exchange listing, no extras: the tick does nothing.
	c.refreshPrices(context.Background())
	assert.Empty(t, prices.calls)

	_, ok := c.priceTable.Load()
	assert.False(t, ok)
}

func TestController_SymbolUniverse(t *testing.T) {
	coll := &fakeCollector{
		snapshot: testSnapshot(t),
		exchange: []domain.AssetPosition{
			domain.NewExchangePosition(domain.NetworkCoinex, "ADA", decimal.NewFromInt(10)),
			domain.NewExchangePosition(domain.NetworkCoinex, "USDT", decimal.NewFromInt(100)),
		},
	}
	prices := &fakePrices{}
	c, _ := newTestController(t, coll, prices)

	c.RefreshBalances(context.Background())
	require.NoError(t, c.ReportExchange(context.Background()))

	// Snapshot and exchange symbols are quoted; the reserve asset is not.
	assert.Equal(t, []string{"ADA", "BNB", "ETH"}, c.symbolUniverse())
}

func TestController_BackgroundRefreshAndCancellation(t *testing.T) {
	coll := &fakeCollector{snapshot: testSnapshot(t)}
	prices := &fakePrices{table: domain.PriceTable{"BNB": decimal.NewFromInt(600)}}
	c, _ := newTestController(t, coll, prices)
	c.RefreshBalances(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := c.StartPriceRefresh(ctx)

	require.Eventually(t, func() bool {
		_, ok := c.priceTable.Load()
		return ok
	}, time.Second, time.Millisecond, "background task never published a table")

	// Exit must wait for the task's acknowledgment.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh task did not acknowledge cancellation")
	}
}

func TestController_RefreshCostBasis(t *testing.T) {
	t.Run("downloads then reloads", func(t *testing.T) {
		coll := &fakeCollector{}
		cfg := &config.Config{RefreshInterval: time.Second, ReserveSymbol: "USDT"}
		costs := &fakeCosts{}
		sheets := &fakeSheets{}
		c := NewController(cfg, coll, &fakePrices{}, costs, sheets, report.NewRenderer(&bytes.Buffer{}), zap.NewNop())

		require.NoError(t, c.RefreshCostBasis(context.Background()))
		assert.Equal(t, 1, sheets.downloads)
		assert.Equal(t, 1, costs.reloads)
	})

	t.Run("download failure skips reload", func(t *testing.T) {
		cfg := &config.Config{RefreshInterval: time.Second, ReserveSymbol: "USDT"}
		costs := &fakeCosts{}
		sheets := &fakeSheets{err: errors.New("sheet unreachable")}
		c := NewController(cfg, &fakeCollector{}, &fakePrices{}, costs, sheets, report.NewRenderer(&bytes.Buffer{}), zap.NewNop())

		assert.Error(t, c.RefreshCostBasis(context.Background()))
		assert.Zero(t, costs.reloads)
	})
}

func TestController_ExchangeFailureIsHard(t *testing.T) {
	coll := &fakeCollector{
		snapshot:    testSnapshot(t),
		exchangeErr: errors.New("signature mismatch"),
	}
	c, _ := newTestController(t, coll, &fakePrices{})
	c.RefreshBalances(context.Background())

	assert.Error(t, c.ReportExchange(context.Background()))
}
