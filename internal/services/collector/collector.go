// Package collector queries the configured balance sources and normalizes the
// results into portfolio positions.
package collector

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dkochetov/cryptofolio/config"
	"github.com/dkochetov/cryptofolio/internal/clients"
	"github.com/dkochetov/cryptofolio/internal/domain"
)

// solanaSymbol is the pricing ticker of the Solana native asset.
const solanaSymbol = "SOL"

// ChainClient is the per-network balance source for EVM chains.
type ChainClient interface {
	Network() string
	NativeBalance(ctx context.Context, wallet string) (*big.Int, error)
	TokenBalance(ctx context.Context, contract, wallet string) (*big.Int, uint8, error)
}

// SolanaBalancer is the native balance source for Solana wallets.
type SolanaBalancer interface {
	Balance(ctx context.Context, wallet string) (*big.Int, error)
}

// ExchangeClient lists the authenticated spot balances of the exchange account.
type ExchangeClient interface {
	SpotBalances(ctx context.Context) ([]clients.SpotBalance, error)
}

// contribution is one successfully fetched balance before per-asset merging.
type contribution struct {
	network  string
	symbol   string
	display  string
	raw      *big.Int
	decimals int32
}

// Collector drives balance collection over the statically configured set of
// (network, wallet, token) sources.
type Collector struct {
	networks []config.EVMNetworkConfig
	chains   map[string]ChainClient
	solana   SolanaBalancer
	solCfg   config.SolanaNetworkConfig
	exchange ExchangeClient
	workers  int
	logger   *zap.Logger
}

// New creates a collector over the configured sources. chains must contain a
// client for every configured EVM network name.
func New(
	cfg *config.Config,
	chains map[string]ChainClient,
	solana SolanaBalancer,
	exchange ExchangeClient,
	logger *zap.Logger,
) *Collector {
	return &Collector{
		networks: cfg.EVMNetworks,
		chains:   chains,
		solana:   solana,
		solCfg:   cfg.Solana,
		exchange: exchange,
		workers:  cfg.CollectWorkers,
		logger:   logger.Named("collector"),
	}
}

// CollectChains queries every configured on-chain balance source and builds a
// fresh snapshot. Queries run with bounded concurrency; a failure fetching one
// wallet or token is logged and leaves that position out of the snapshot, it
// never aborts the pass.
func (c *Collector) CollectChains(ctx context.Context) *domain.PortfolioSnapshot {
	var (
		mu            sync.Mutex
		contributions []contribution
	)
	add := func(item contribution) {
		mu.Lock()
		contributions = append(contributions, item)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, network := range c.networks {
		client, ok := c.chains[network.Name]
		if !ok {
			c.logger.Warn("no client for configured network, skipping", zap.String("network", network.Name))
			continue
		}

		nativeSymbol := network.NativeSymbol
		priceSymbol := network.PriceSymbol
		if priceSymbol == "" {
			priceSymbol = nativeSymbol
		}

		for _, wallet := range network.Wallets {
			network, wallet := network, wallet
			g.Go(func() error {
				raw, err := client.NativeBalance(gctx, wallet)
				if err != nil {
					c.logger.Warn("native balance fetch failed",
						zap.String("network", network.Name),
						zap.String("wallet", wallet),
						zap.Error(err))
					return nil
				}
				display := ""
				if priceSymbol != nativeSymbol {
					display = nativeSymbol
				}
				add(contribution{
					network:  network.Name,
					symbol:   priceSymbol,
					display:  display,
					raw:      raw,
					decimals: 18,
				})
				return nil
			})

			for _, token := range network.Tokens {
				token := token
				g.Go(func() error {
					raw, decimals, err := client.TokenBalance(gctx, token.Contract, wallet)
					if err != nil {
						c.logger.Warn("token balance fetch failed",
							zap.String("network", network.Name),
							zap.String("token", token.Symbol),
							zap.String("wallet", wallet),
							zap.Error(err))
						return nil
					}
					symbol := token.PriceSymbol
					display := ""
					if symbol == "" {
						symbol = token.Symbol
					} else if symbol != token.Symbol {
						display = token.Symbol
					}
					add(contribution{
						network:  network.Name,
						symbol:   symbol,
						display:  display,
						raw:      raw,
						decimals: int32(decimals),
					})
					return nil
				})
			}
		}
	}

	if c.solana != nil {
		for _, wallet := range c.solCfg.Wallets {
			wallet := wallet
			g.Go(func() error {
				raw, err := c.solana.Balance(gctx, wallet)
				if err != nil {
					c.logger.Warn("solana balance fetch failed",
						zap.String("wallet", wallet),
						zap.Error(err))
					return nil
				}
				add(contribution{
					network:  domain.NetworkSolana,
					symbol:   solanaSymbol,
					raw:      raw,
					decimals: clients.SolanaDecimals,
				})
				return nil
			})
		}
	}

	// Workers only log failures, the group never returns an error.
	_ = g.Wait()

	return c.merge(contributions)
}

// merge sums contributions per (network, symbol) so a snapshot holds each
// asset once even when several wallets hold it on the same chain.
func (c *Collector) merge(contributions []contribution) *domain.PortfolioSnapshot {
	type bucket struct {
		contribution
		order int
	}
	buckets := make(map[string]*bucket, len(contributions))
	var order []string

	for _, item := range contributions {
		key := fmt.Sprintf("%s/%s", item.network, item.symbol)
		if b, ok := buckets[key]; ok {
			b.raw = new(big.Int).Add(b.raw, item.raw)
			continue
		}
		buckets[key] = &bucket{contribution: item, order: len(order)}
		order = append(order, key)
	}

	snapshot := domain.NewPortfolioSnapshot(time.Now())
	for _, key := range order {
		b := buckets[key]
		pos := domain.NewChainPosition(b.network, b.symbol, b.display, b.raw, b.decimals)
		if err := snapshot.Add(pos); err != nil {
			c.logger.Warn("dropping duplicate position", zap.String("key", key), zap.Error(err))
		}
	}
	return snapshot
}

// CollectExchange fetches the live spot balance listing and normalizes it into
// positions (scale 1, amounts already decimal). Zero balances are dropped. A
// signing or transport failure is a hard error for the call.
func (c *Collector) CollectExchange(ctx context.Context) ([]domain.AssetPosition, error) {
	if c.exchange == nil {
		return nil, errors.New("exchange client is not configured")
	}

	balances, err := c.exchange.SpotBalances(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch exchange spot balances")
	}

	positions := make([]domain.AssetPosition, 0, len(balances))
	for _, b := range balances {
		if b.Available.IsZero() {
			continue
		}
		positions = append(positions, domain.NewExchangePosition(domain.NetworkCoinex, b.Ccy, b.Available))
	}
	return positions, nil
}
