package wallet

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exposure/internal/domain"
	"github.com/vadiminshakov/exposure/internal/services/onchain"
)

const account = "0x00000000000000000000000000000000000000aa"

type MockBalanceReader struct {
	mock.Mock
}

func (m *MockBalanceReader) BalanceOf(ctx context.Context, token onchain.Token, acc common.Address) (decimal.Decimal, error) {
	args := m.Called(ctx, token.Symbol, acc)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockBalanceReader) NativeBalance(ctx context.Context, acc common.Address) (decimal.Decimal, error) {
	args := m.Called(ctx, acc)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func TestReader_GetPositions(t *testing.T) {
	registry, err := domain.NewRegistry(nil)
	require.NoError(t, err)

	balances := new(MockBalanceReader)
	balances.On("BalanceOf", mock.Anything, "WBTC", common.HexToAddress(account)).Return(decimal.RequireFromString("0.25"), nil)
	balances.On("BalanceOf", mock.Anything, "USDC", common.HexToAddress(account)).Return(decimal.NewFromInt(100), nil)
	balances.On("NativeBalance", mock.Anything, common.HexToAddress(account)).Return(decimal.RequireFromString("1.5"), nil)

	r, err := NewReader(balances, registry, account, []domain.Asset{domain.AssetWBTC, domain.AssetETH, domain.AssetUSDC})
	require.NoError(t, err)

	set, err := r.GetPositions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.VenueWallet, set.Venue)
	amounts := set.Amounts()
	require.Len(t, amounts, 3)
	assert.Equal(t, "WBTC", amounts[0].Symbol)
	assert.Equal(t, "ETH", amounts[1].Symbol)
	assert.True(t, amounts[1].Quantity.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, "USDC", amounts[2].Symbol)
	balances.AssertNumberOfCalls(t, "NativeBalance", 1)
}

func TestReader_GetPositionsFailure(t *testing.T) {
	registry, err := domain.NewRegistry(nil)
	require.NoError(t, err)

	balances := new(MockBalanceReader)
	balances.On("BalanceOf", mock.Anything, "DAI", mock.Anything).Return(decimal.Zero, errors.New("execution reverted"))

	r, err := NewReader(balances, registry, account, []domain.Asset{domain.AssetDAI})
	require.NoError(t, err)

	_, err = r.GetPositions(context.Background())
	assert.ErrorContains(t, err, "balance of DAI")
}

func TestNewReader_Validation(t *testing.T) {
	registry, err := domain.NewRegistry(nil)
	require.NoError(t, err)

	_, err = NewReader(new(MockBalanceReader), registry, "0x1", domain.WalletAssets)
	assert.Error(t, err)

	_, err = NewReader(new(MockBalanceReader), registry, account, []domain.Asset{"DOGE"})
	assert.Error(t, err)
}
