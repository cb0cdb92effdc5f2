// Command cryptofolio tracks cryptocurrency holdings across EVM chains,
// Solana and a CoinEx spot account, joins them with live USD prices and a
// cost-basis sheet and renders consolidated profit/loss reports.
//
// Usage:
//
//	cryptofolio --config portfolio.yaml
//
// Required environment variables (a local .env file is honored):
//
//	ACCESS_ID, SECRET_KEY   CoinEx API credentials
//	CMC_API_KEY             CoinMarketCap API key
//	GOOGLE_SHEET_ID         cost-basis spreadsheet identifier
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dkochetov/cryptofolio/config"
	"github.com/dkochetov/cryptofolio/internal/app"
	"github.com/dkochetov/cryptofolio/internal/clients"
	"github.com/dkochetov/cryptofolio/internal/report"
	"github.com/dkochetov/cryptofolio/internal/services/collector"
	"github.com/dkochetov/cryptofolio/internal/services/costbasis"
	"github.com/dkochetov/cryptofolio/internal/services/quote"
)

const dialTimeout = 15 * time.Second

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	coinex := clients.NewCoinexClient(cfg.Credentials.CoinexAccessID, cfg.Credentials.CoinexSecret)
	cmc := clients.NewCMCClient(cfg.Credentials.CMCAPIKey)

	chains := make(map[string]collector.ChainClient, len(cfg.EVMNetworks))
	for _, network := range cfg.EVMNetworks {
		dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
		chain, err := clients.DialEVM(dialCtx, network.Name, network.Endpoint)
		dialCancel()
		if err != nil {
			logger.Fatal("failed to connect to network", zap.String("network", network.Name), zap.Error(err))
		}
		defer chain.Close()
		chains[network.Name] = chain
	}

	var solana collector.SolanaBalancer
	if cfg.Solana.Endpoint != "" {
		solana = clients.NewSolanaClient(cfg.Solana.Endpoint)
	}

	coll := collector.New(cfg, chains, solana, coinex, logger)
	gateway := quote.NewGateway(coinex, cmc, logger)
	resolver := costbasis.NewResolver(cfg.CostBasis.File, cfg.CostBasis.Aliases, cfg.ReserveSymbol, logger)
	downloader := costbasis.NewDownloader(cfg.Credentials.SheetID, cfg.CostBasis.SheetGID, cfg.CostBasis.File, logger)
	renderer := report.NewRenderer(os.Stdout)

	controller := app.NewController(cfg, coll, gateway, resolver, downloader, renderer, logger)

	refreshDone := controller.StartPriceRefresh(ctx)

	// Initial collection pass so the session starts Ready.
	controller.RefreshBalances(ctx)

	if err := app.RunMenu(ctx, controller, logger); err != nil && ctx.Err() == nil {
		logger.Error("session ended with error", zap.Error(err))
	}

	// Stop the refresh task and wait for its acknowledgment so no in-flight
	// request logs after shutdown.
	cancel()
	<-refreshDone
	logger.Info("bye")
}
