package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotionalValuation_Exact(t *testing.T) {
	v := NewNotionalValuation(VenueWallet, "WBTC", decimal.RequireFromString("0.12345678"), decimal.RequireFromString("27123.45"))

	assert.True(t, decimal.RequireFromString("3348.573799491").Equal(v.Notional), v.Notional.String())
	assert.True(t, v.Notional.Equal(v.Quantity.Mul(v.USDPrice)))
}

func TestNewOpenInterestSplit(t *testing.T) {
	tests := []struct {
		name     string
		interest []OpenInterest
		longs    int
		shorts   int
		longUSD  string
		shortUSD string
	}{
		{
			name: "both sides",
			interest: []OpenInterest{
				{Symbol: "WETH", Long: decimal.NewFromInt(300), Short: decimal.NewFromInt(200)},
				{Symbol: "WBTC", Long: decimal.NewFromInt(500), Short: decimal.Zero},
				{Symbol: "LINK", Long: decimal.Zero, Short: decimal.NewFromInt(40)},
			},
			longs: 2, shorts: 2, longUSD: "800", shortUSD: "-240",
		},
		{
			name:     "no interest",
			interest: []OpenInterest{{Symbol: "DAI", Long: decimal.Zero, Short: decimal.Zero}},
			longUSD:  "0", shortUSD: "0",
		},
		{name: "empty", longUSD: "0", shortUSD: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split := NewOpenInterestSplit(tt.interest)

			assert.Equal(t, tt.longs, split.LongCount)
			assert.Equal(t, tt.shorts, split.ShortCount)
			assert.True(t, split.LongNotional.Equal(decimal.RequireFromString(tt.longUSD)), split.LongNotional.String())
			assert.True(t, split.ShortNotional.Equal(decimal.RequireFromString(tt.shortUSD)), split.ShortNotional.String())
		})
	}
}

func TestSnapshotSummary_Immutable(t *testing.T) {
	positions := []NotionalValuation{
		NewNotionalValuation(VenueWallet, "DAI", decimal.NewFromInt(5), decimal.NewFromInt(1)),
	}
	exchange := &ExchangeDetail{Hedges: []HedgeValuation{{}}}
	createdAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	s := NewSnapshotSummary("id-1", createdAt, []VenueValuation{
		NewVenueValuation(VenueWallet, positions),
		NewVenueValuation(VenueExchange, nil),
	}, exchange, nil)

	positions[0].Symbol = "changed"
	exchange.Hedges[0].Symbol = "changed"

	assert.Equal(t, []Venue{VenueExchange, VenueWallet}, s.Venues())
	assert.Equal(t, "DAI", s.Breakdown(VenueWallet)[0].Symbol)

	got := s.Breakdown(VenueWallet)
	got[0].Symbol = "mutated"
	assert.Equal(t, "DAI", s.Breakdown(VenueWallet)[0].Symbol)

	detail, ok := s.Exchange()
	require.True(t, ok)
	assert.Empty(t, detail.Hedges[0].Symbol)

	_, ok = s.Protocol()
	assert.False(t, ok)
	assert.False(t, s.Has(VenueProtocol))

	totals := s.Totals()
	totals[VenueWallet] = decimal.NewFromInt(100)
	total, _ := s.Total(VenueWallet)
	assert.True(t, total.Equal(decimal.NewFromInt(5)))
	assert.True(t, s.PortfolioTotal().Equal(decimal.NewFromInt(5)))

	view := s.View()
	assert.Equal(t, "id-1", view.ID)
	assert.Equal(t, "5", view.Venues["Metamask"])
	assert.Nil(t, view.OpenInterest)
}

func TestSnapshotSummary_ViewOpenInterest(t *testing.T) {
	protocol := &ProtocolDetail{
		Split: NewOpenInterestSplit([]OpenInterest{
			{Symbol: "WETH", Long: decimal.NewFromInt(300), Short: decimal.NewFromInt(200)},
			{Symbol: "WBTC", Long: decimal.Zero, Short: decimal.NewFromInt(100)},
		}),
	}
	s := NewSnapshotSummary("id-2", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), []VenueValuation{
		NewVenueValuation(VenueProtocol, nil),
	}, nil, protocol)

	view := s.View()
	require.NotNil(t, view.OpenInterest)
	assert.Equal(t, 1, view.OpenInterest.LongCount)
	assert.Equal(t, 2, view.OpenInterest.ShortCount)
	assert.Equal(t, "300", view.OpenInterest.Long)
	assert.Equal(t, "-300", view.OpenInterest.Short)
}

func TestCycleResult_Reason(t *testing.T) {
	r := CycleResult{
		Status:      CyclePartialFailure,
		VenueErrors: map[Venue]error{VenueWallet: ErrSourceUnavailable},
	}
	assert.Equal(t, "Metamask: source unavailable", r.Reason())
	assert.Equal(t, "partial_failure", r.Status.String())
}
