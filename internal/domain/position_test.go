package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenuePositionSet_AddKeepsOrder(t *testing.T) {
	set := NewVenuePositionSet(VenueWallet, time.Unix(0, 0))

	require.NoError(t, set.Add("WBTC", decimal.NewFromFloat(0.5)))
	require.NoError(t, set.Add("ETH", decimal.NewFromInt(-2)))
	require.NoError(t, set.Add("DAI", decimal.Zero))

	amounts := set.Amounts()
	require.Len(t, amounts, 3)
	assert.Equal(t, "WBTC", amounts[0].Symbol)
	assert.Equal(t, "ETH", amounts[1].Symbol)
	assert.True(t, amounts[1].Quantity.Equal(decimal.NewFromInt(-2)))
	assert.Equal(t, "DAI", amounts[2].Symbol)
	assert.Equal(t, 3, set.Len())

	err := set.Add("ETH", decimal.NewFromInt(1))
	assert.Error(t, err)

	got, ok := set.Get("ETH")
	require.True(t, ok)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(-2)))
}

func TestPoolShare_FairValue(t *testing.T) {
	tests := []struct {
		name      string
		share     PoolShare
		legacyMid bool
		expected  decimal.Decimal
		wantErr   error
	}{
		{
			name: "mid of buy and sell",
			share: PoolShare{
				BuyAUM:      decimal.NewFromInt(1010),
				SellAUM:     decimal.NewFromInt(990),
				TotalSupply: decimal.NewFromInt(1000),
			},
			expected: decimal.NewFromInt(1),
		},
		{
			name: "legacy mid averages buy side with itself",
			share: PoolShare{
				BuyAUM:      decimal.NewFromInt(1010),
				SellAUM:     decimal.NewFromInt(990),
				TotalSupply: decimal.NewFromInt(1000),
			},
			legacyMid: true,
			expected:  decimal.RequireFromString("1.01"),
		},
		{
			name:    "zero supply",
			share:   PoolShare{BuyAUM: decimal.NewFromInt(1), SellAUM: decimal.NewFromInt(1)},
			wantErr: ErrDivideByZero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.share.FairValue(tt.legacyMid)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestHedgePosition_BaseQuote(t *testing.T) {
	pair, err := ParsePair("LINKBUSD")
	require.NoError(t, err)

	h := HedgePosition{Pair: pair}
	assert.Equal(t, "LINK", h.Base())
	assert.Equal(t, "BUSD", h.Quote())
}
