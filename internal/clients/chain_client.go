package clients

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// ChainBackend read-only subset of an Ethereum JSON-RPC client.
type ChainBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// ChainClient performs ABI-encoded view calls against the latest block.
type ChainClient struct {
	backend ChainBackend
	closer  func()
}

// NewChainClient wraps an existing backend.
func NewChainClient(backend ChainBackend) *ChainClient {
	return &ChainClient{backend: backend}
}

// DialChain connects to the JSON-RPC endpoint at rawURL.
func DialChain(ctx context.Context, rawURL string) (*ChainClient, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial chain rpc")
	}

	return &ChainClient{backend: client, closer: client.Close}, nil
}

// Call invokes a view method of contract and returns its decoded outputs.
func (c *ChainClient) Call(ctx context.Context, contract common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s", method)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s on %s", method, contract.Hex())
	}

	values, err := contractABI.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpack %s", method)
	}

	return values, nil
}

// BalanceAt returns the native balance of account in wei.
func (c *ChainClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "get balance of %s", account.Hex())
	}
	return balance, nil
}

// Close releases the underlying connection.
func (c *ChainClient) Close() {
	if c.closer != nil {
		c.closer()
	}
}
