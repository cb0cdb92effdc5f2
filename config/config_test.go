package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
price_refresh_interval: 30s
reserve_symbol: USDC
extra_symbols: [KAS]
cost_basis:
  file: costs.csv
  sheet_gid: "1977554648"
  aliases:
    FET: OCEAN
evm_networks:
  - name: ethereum
    endpoint: https://eth.llamarpc.com
    native_symbol: ETH
    wallets: ["0xaaa"]
    tokens:
      - symbol: WBTC
        contract: "0x2260fac5e5542a773aa44fbcfedf7c193bc2c599"
        price_symbol: BTC
  - name: arbitrum
    endpoint: https://arb1.arbitrum.io/rpc
    native_symbol: ETH
    price_symbol: ETH
    wallets: ["0xaaa", "0xbbb"]
solana:
  endpoint: https://api.mainnet-beta.solana.com
  wallets: ["9xQe"]
`)

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "USDC", cfg.ReserveSymbol)
	assert.Equal(t, []string{"KAS"}, cfg.ExtraSymbols)
	assert.Equal(t, "OCEAN", cfg.CostBasis.Aliases["FET"])

	require.Len(t, cfg.EVMNetworks, 2)
	assert.Equal(t, "BTC", cfg.EVMNetworks[0].Tokens[0].PriceSymbol)
	assert.Len(t, cfg.EVMNetworks[1].Wallets, 2)
	assert.Len(t, cfg.Solana.Wallets, 1)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
evm_networks:
  - name: ethereum
    endpoint: https://eth.llamarpc.com
    native_symbol: ETH
    wallets: ["0xaaa"]
`)

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "USDT", cfg.ReserveSymbol)
	assert.Equal(t, 4, cfg.CollectWorkers)
	assert.Equal(t, "investment_data.csv", cfg.CostBasis.File)
	assert.Equal(t, "0", cfg.CostBasis.SheetGID)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "network without endpoint",
			yaml: "evm_networks:\n  - name: ethereum\n    native_symbol: ETH\n",
			want: "endpoint",
		},
		{
			name: "network without native symbol",
			yaml: "evm_networks:\n  - name: ethereum\n    endpoint: http://x\n",
			want: "native_symbol",
		},
		{
			name: "token without contract",
			yaml: "evm_networks:\n  - name: ethereum\n    endpoint: http://x\n    native_symbol: ETH\n    tokens:\n      - symbol: WBTC\n",
			want: "contract",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
