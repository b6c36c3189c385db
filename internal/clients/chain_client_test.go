package clients

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const totalSupplyABI = `[{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

type fakeBackend struct {
	calls   []ethereum.CallMsg
	reply   []byte
	err     error
	balance *big.Int
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	return f.reply, f.err
}

func (f *fakeBackend) BalanceAt(_ context.Context, _ common.Address, _ *big.Int) (*big.Int, error) {
	return f.balance, f.err
}

func TestChainClient_Call(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(totalSupplyABI))
	require.NoError(t, err)

	reply, err := parsed.Methods["totalSupply"].Outputs.Pack(big.NewInt(1234))
	require.NoError(t, err)

	backend := &fakeBackend{reply: reply}
	c := NewChainClient(backend)
	contract := common.HexToAddress("0x4277f8F2c384827B5273592FF7CeBd9f2C1ac258")

	out, err := c.Call(context.Background(), contract, parsed, "totalSupply")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, big.NewInt(1234), out[0])

	require.Len(t, backend.calls, 1)
	assert.Equal(t, contract, *backend.calls[0].To)
	assert.Equal(t, parsed.Methods["totalSupply"].ID, backend.calls[0].Data)
}

func TestChainClient_CallErrors(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(totalSupplyABI))
	require.NoError(t, err)

	c := NewChainClient(&fakeBackend{err: errors.New("rpc down")})
	_, err = c.Call(context.Background(), common.Address{}, parsed, "totalSupply")
	assert.ErrorContains(t, err, "rpc down")

	_, err = c.Call(context.Background(), common.Address{}, parsed, "missing")
	assert.Error(t, err)

	c = NewChainClient(&fakeBackend{balance: big.NewInt(7)})
	balance, err := c.BalanceAt(context.Background(), common.Address{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance.Int64())
}
