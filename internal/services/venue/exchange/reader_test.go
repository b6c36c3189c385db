package exchange

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exposure/internal/clients"
	"github.com/vadiminshakov/exposure/internal/domain"
)

type MockFuturesClient struct {
	mock.Mock
}

func (m *MockFuturesClient) FetchBalance(ctx context.Context) ([]domain.ExchangeBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeBalance), args.Error(1)
}

func (m *MockFuturesClient) FetchPositions(ctx context.Context) ([]clients.FuturesPosition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.FuturesPosition), args.Error(1)
}

func (m *MockFuturesClient) FetchFundingRate(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	args := m.Called(ctx, pair)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMarginRatio(t *testing.T) {
	stable := []string{"USDT", "BUSD"}

	tests := []struct {
		name     string
		balances []domain.ExchangeBalance
		expected decimal.Decimal
		wantErr  error
	}{
		{
			name: "stable subset only",
			balances: []domain.ExchangeBalance{
				{Asset: "USDT", MaintMargin: d("6"), MarginBalance: d("60")},
				{Asset: "BUSD", MaintMargin: d("4"), MarginBalance: d("40")},
				{Asset: "BNB", MaintMargin: d("100"), MarginBalance: d("1")},
			},
			expected: d("0.1"),
		},
		{
			name: "zero margin",
			balances: []domain.ExchangeBalance{
				{Asset: "USDT", MaintMargin: d("1"), MarginBalance: decimal.Zero},
			},
			wantErr: domain.ErrDivideByZero,
		},
		{
			name:    "no balances",
			wantErr: domain.ErrDivideByZero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarginRatio(tt.balances, stable)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestReader_GetPositions(t *testing.T) {
	client := new(MockFuturesClient)
	client.On("FetchBalance", mock.Anything).Return([]domain.ExchangeBalance{
		{Asset: "USDT", WalletBalance: d("1000"), MaintMargin: d("10"), MarginBalance: d("100")},
	}, nil)
	client.On("FetchPositions", mock.Anything).Return([]clients.FuturesPosition{
		{Symbol: "BTCUSDT", PositionAmount: d("-0.5"), Notional: d("-15000"), UnrealizedProfit: d("120"), Leverage: d("5")},
		{Symbol: "ETHUSDT", PositionAmount: decimal.Zero, Notional: decimal.Zero, Leverage: d("20")},
		{Symbol: "LINKUSDT", PositionAmount: decimal.Zero, Leverage: d("3")},
		{Symbol: "LINKUSDT", PositionAmount: d("-10"), Notional: d("-70"), UnrealizedProfit: d("-1"), Leverage: d("10")},
	}, nil)
	client.On("FetchFundingRate", mock.Anything, mock.Anything).Return(d("0.0001"), nil)

	r, err := NewReader(client, []string{"BTCUSDT", "ETHUSDT", "LINKUSDT", "UNIBUSD"}, []string{"USDT", "BUSD"}, zap.NewNop())
	require.NoError(t, err)

	set, err := r.GetPositions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.VenueExchange, set.Venue)
	assert.True(t, set.MarginRatio.Equal(d("0.1")))
	require.Len(t, set.Hedges, 4)

	btc := set.Hedges[0]
	assert.Equal(t, "BTC", btc.Base())
	assert.Equal(t, "USDT", btc.Quote())
	assert.True(t, btc.Notional.Equal(d("-15000")))
	assert.True(t, btc.Leverage.Equal(d("5")))
	assert.True(t, btc.FundingRate.Equal(d("0.0001")))

	eth := set.Hedges[1]
	assert.True(t, eth.Leverage.IsZero(), "leverage of an empty position is zero")

	link := set.Hedges[2]
	assert.True(t, link.PositionAmount.Equal(d("-10")))
	assert.True(t, link.Leverage.Equal(d("10")))

	uni := set.Hedges[3]
	assert.Equal(t, "UNI", uni.Base())
	assert.True(t, uni.Notional.IsZero())
	assert.True(t, uni.Leverage.IsZero())

	amounts := set.Amounts()
	require.Len(t, amounts, 4)
	assert.Equal(t, "BTCUSDT", amounts[0].Symbol)
	assert.Equal(t, "UNIBUSD", amounts[3].Symbol)
	client.AssertNumberOfCalls(t, "FetchFundingRate", 4)
}

func TestReader_GetPositionsErrors(t *testing.T) {
	t.Run("zero margin aborts", func(t *testing.T) {
		client := new(MockFuturesClient)
		client.On("FetchBalance", mock.Anything).Return([]domain.ExchangeBalance{{Asset: "USDT"}}, nil)

		r, err := NewReader(client, []string{"BTCUSDT"}, []string{"USDT"}, zap.NewNop())
		require.NoError(t, err)

		_, err = r.GetPositions(context.Background())
		assert.ErrorIs(t, err, domain.ErrDivideByZero)
	})

	t.Run("held asset reported before margin ratio", func(t *testing.T) {
		client := new(MockFuturesClient)
		client.On("FetchBalance", mock.Anything).Return([]domain.ExchangeBalance{
			{Asset: "BTC", WalletBalance: d("0.5"), MarginBalance: d("15000")},
			{Asset: "USDT"},
		}, nil)

		r, err := NewReader(client, []string{"BTCUSDT"}, []string{"USDT"}, zap.NewNop())
		require.NoError(t, err)

		_, err = r.GetPositions(context.Background())
		assert.ErrorIs(t, err, domain.ErrUnexpectedAssetHeld)
		assert.NotErrorIs(t, err, domain.ErrDivideByZero)
		client.AssertNotCalled(t, "FetchPositions", mock.Anything)
	})

	t.Run("funding failure aborts", func(t *testing.T) {
		client := new(MockFuturesClient)
		client.On("FetchBalance", mock.Anything).Return([]domain.ExchangeBalance{
			{Asset: "USDT", MaintMargin: d("1"), MarginBalance: d("10")},
		}, nil)
		client.On("FetchPositions", mock.Anything).Return([]clients.FuturesPosition{}, nil)
		client.On("FetchFundingRate", mock.Anything, mock.Anything).Return(decimal.Zero, errors.New("418"))

		r, err := NewReader(client, []string{"BTCUSDT"}, []string{"USDT"}, zap.NewNop())
		require.NoError(t, err)

		_, err = r.GetPositions(context.Background())
		assert.ErrorContains(t, err, "BTCUSDT")
	})

	t.Run("invalid pair", func(t *testing.T) {
		_, err := NewReader(new(MockFuturesClient), []string{"BTC"}, nil, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestCheckHeldAssets(t *testing.T) {
	stable := []string{"USDT", "BUSD"}

	assert.NoError(t, CheckHeldAssets([]domain.ExchangeBalance{
		{Asset: "USDT", WalletBalance: d("100")},
		{Asset: "BNB", WalletBalance: decimal.Zero},
	}, stable))

	err := CheckHeldAssets([]domain.ExchangeBalance{{Asset: "BTC", WalletBalance: d("0.5")}}, stable)
	assert.ErrorIs(t, err, domain.ErrUnexpectedAssetHeld)
	assert.ErrorContains(t, err, "BTC")
}
