package clients

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// Minimal ERC-20 ABI: balance and decimal scale queries only.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var (
	parsedERC20     abi.ABI
	parseERC20Once  sync.Once
	parseERC20Error error
)

func erc20() (abi.ABI, error) {
	parseERC20Once.Do(func() {
		parsedERC20, parseERC20Error = abi.JSON(strings.NewReader(erc20ABI))
	})
	return parsedERC20, parseERC20Error
}

// EVMClient queries native and ERC-20 balances on one EVM-compatible network.
type EVMClient struct {
	network string
	ec      *ethclient.Client
}

// DialEVM connects to the network RPC endpoint.
func DialEVM(ctx context.Context, network, endpoint string) (*EVMClient, error) {
	ec, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s rpc %s", network, endpoint)
	}
	return &EVMClient{network: network, ec: ec}, nil
}

// Network returns the configured network name.
func (c *EVMClient) Network() string {
	return c.network
}

// NativeBalance fetches the native asset balance of a wallet in wei.
func (c *EVMClient) NativeBalance(ctx context.Context, wallet string) (*big.Int, error) {
	balance, err := c.ec.BalanceAt(ctx, common.HexToAddress(wallet), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "native balance of %s on %s", wallet, c.network)
	}
	return balance, nil
}

// TokenBalance fetches an ERC-20 balance and the token's decimal scale using
// the two-call pattern: decimals() first, then balanceOf(wallet).
func (c *EVMClient) TokenBalance(ctx context.Context, contract, wallet string) (*big.Int, uint8, error) {
	parsed, err := erc20()
	if err != nil {
		return nil, 0, errors.Wrap(err, "parse erc20 abi")
	}

	tokenAddr := common.HexToAddress(contract)

	decimals, err := c.callUint8(ctx, parsed, tokenAddr, "decimals")
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decimals of %s on %s", contract, c.network)
	}

	data, err := parsed.Pack("balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return nil, 0, errors.Wrap(err, "pack balanceOf call")
	}
	out, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "balanceOf %s for %s on %s", contract, wallet, c.network)
	}

	unpacked, err := parsed.Unpack("balanceOf", out)
	if err != nil {
		return nil, 0, errors.Wrap(err, "unpack balanceOf result")
	}
	if len(unpacked) == 0 {
		return nil, 0, errors.New("balanceOf returned no data")
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, 0, errors.Errorf("unexpected balanceOf result type %T", unpacked[0])
	}
	return balance, decimals, nil
}

func (c *EVMClient) callUint8(ctx context.Context, parsed abi.ABI, to common.Address, method string) (uint8, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return 0, errors.Wrapf(err, "pack %s call", method)
	}
	out, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return 0, err
	}
	unpacked, err := parsed.Unpack(method, out)
	if err != nil {
		return 0, errors.Wrapf(err, "unpack %s result", method)
	}
	if len(unpacked) == 0 {
		return 0, errors.Errorf("%s returned no data", method)
	}
	v, ok := unpacked[0].(uint8)
	if !ok {
		return 0, errors.Errorf("unexpected %s result type %T", method, unpacked[0])
	}
	return v, nil
}

// Close releases the underlying RPC connection.
func (c *EVMClient) Close() {
	c.ec.Close()
}
