package clients

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/portto/solana-go-sdk/client"
)

// SolanaDecimals is the lamports-per-SOL scale (10^9).
const SolanaDecimals = 9

// SolanaClient queries native SOL balances.
type SolanaClient struct {
	rpc *client.Client
}

// NewSolanaClient creates a client for the given RPC endpoint.
func NewSolanaClient(endpoint string) *SolanaClient {
	return &SolanaClient{rpc: client.NewClient(endpoint)}
}

// Balance fetches a wallet balance in lamports.
func (c *SolanaClient) Balance(ctx context.Context, wallet string) (*big.Int, error) {
	lamports, err := c.rpc.GetBalance(ctx, wallet)
	if err != nil {
		return nil, errors.Wrapf(err, "solana balance of %s", wallet)
	}
	return new(big.Int).SetUint64(lamports), nil
}
