// Package config loads application configuration: credentials from the process
// environment (optionally seeded from a .env file) and the declarative
// portfolio table from a YAML file.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultPortfolioFile  = "portfolio.yaml"
	defaultRefreshEvery   = 10 * time.Second
	defaultReserveSymbol  = "USDT"
	defaultCostBasisFile  = "investment_data.csv"
	defaultCollectWorkers = 4
)

// TokenConfig declares an ERC-20 token whose balance should be collected on a
// network.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Contract string `yaml:"contract"`
	// PriceSymbol remaps a wrapped asset to its underlying ticker for pricing
	// and cost-basis matching (e.g. WBTC -> BTC). Empty means Symbol.
	PriceSymbol string `yaml:"price_symbol,omitempty"`
}

// EVMNetworkConfig declares one EVM-compatible network to collect from.
type EVMNetworkConfig struct {
	Name         string        `yaml:"name"`
	Endpoint     string        `yaml:"endpoint"`
	NativeSymbol string        `yaml:"native_symbol"`
	// PriceSymbol remaps the native asset for pricing, used by secondary
	// chains whose native ether is priced as plain ETH. Empty means
	// NativeSymbol.
	PriceSymbol string        `yaml:"price_symbol,omitempty"`
	Wallets     []string      `yaml:"wallets"`
	Tokens      []TokenConfig `yaml:"tokens,omitempty"`
}

// SolanaNetworkConfig declares the Solana endpoint and wallets to collect from.
type SolanaNetworkConfig struct {
	Endpoint string   `yaml:"endpoint"`
	Wallets  []string `yaml:"wallets"`
}

// CostBasisConfig declares the local cost-basis CSV and its spreadsheet origin.
type CostBasisConfig struct {
	File string `yaml:"file"`
	// SheetGID selects the spreadsheet tab for the CSV export download.
	SheetGID string `yaml:"sheet_gid"`
	// Aliases maps a reported ticker to the ticker recorded in the sheet
	// (rebranded tokens keep their pre-rebrand row).
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

// Credentials are read from the environment once at startup.
type Credentials struct {
	CoinexAccessID string
	CoinexSecret   string
	CMCAPIKey      string
	SheetID        string
}

// Config is the full application configuration.
type Config struct {
	RefreshInterval time.Duration       `yaml:"price_refresh_interval"`
	ReserveSymbol   string              `yaml:"reserve_symbol"`
	// ExtraSymbols are always included in the price refresh even before any
	// balances are collected.
	ExtraSymbols   []string            `yaml:"extra_symbols,omitempty"`
	CollectWorkers int                 `yaml:"collect_workers"`
	CostBasis      CostBasisConfig     `yaml:"cost_basis"`
	EVMNetworks    []EVMNetworkConfig  `yaml:"evm_networks"`
	Solana         SolanaNetworkConfig `yaml:"solana"`

	Credentials Credentials `yaml:"-"`
}

// Get parses flags, loads the YAML portfolio table and reads credentials from
// the environment.
func Get() (*Config, error) {
	path := flag.String("config", defaultPortfolioFile, "path to yaml portfolio config")
	flag.Parse()

	cfg, err := load(*path)
	if err != nil {
		return nil, err
	}

	// .env is a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	cfg.Credentials = Credentials{
		CoinexAccessID: os.Getenv("ACCESS_ID"),
		CoinexSecret:   os.Getenv("SECRET_KEY"),
		CMCAPIKey:      os.Getenv("CMC_API_KEY"),
		SheetID:        os.Getenv("GOOGLE_SHEET_ID"),
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config %s", path)
	}

	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshEvery
	}
	if cfg.ReserveSymbol == "" {
		cfg.ReserveSymbol = defaultReserveSymbol
	}
	if cfg.CollectWorkers <= 0 {
		cfg.CollectWorkers = defaultCollectWorkers
	}
	if cfg.CostBasis.File == "" {
		cfg.CostBasis.File = defaultCostBasisFile
	}
	if cfg.CostBasis.SheetGID == "" {
		cfg.CostBasis.SheetGID = "0"
	}

	for i, n := range cfg.EVMNetworks {
		if n.Name == "" || n.Endpoint == "" {
			return nil, errors.Errorf("evm network #%d: name and endpoint are required", i)
		}
		if n.NativeSymbol == "" {
			return nil, errors.Errorf("evm network %s: native_symbol is required", n.Name)
		}
		for _, t := range n.Tokens {
			if t.Symbol == "" || t.Contract == "" {
				return nil, errors.Errorf("evm network %s: token symbol and contract are required", n.Name)
			}
		}
	}

	return &cfg, nil
}
