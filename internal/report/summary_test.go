package report

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vadiminshakov/exposure/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSummary() *domain.SnapshotSummary {
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return domain.NewSnapshotSummary("snap-1", createdAt, []domain.VenueValuation{
		domain.NewVenueValuation(domain.VenueExchange, []domain.NotionalValuation{
			domain.NewNotionalValuation(domain.VenueExchange, "BTC", d("-0.01"), d("60000")),
		}),
		domain.NewVenueValuation(domain.VenueWallet, []domain.NotionalValuation{
			domain.NewNotionalValuation(domain.VenueWallet, "DAI", d("100"), d("1")),
		}),
	}, &domain.ExchangeDetail{
		WalletBalance: d("1000"),
		MarginRatio:   d("0.0125"),
		UnrealizedPnL: d("-12.5"),
	}, nil)
}

func TestRender(t *testing.T) {
	out := Render(domain.CycleResult{Status: domain.CycleSuccess, Summary: testSummary(), Persisted: true})

	assert.Contains(t, out, "status: success, persisted: true")
	assert.Contains(t, out, "Snapshot snap-1 at 2024-05-01 12:00:00 UTC")
	assert.Contains(t, out, "Binance")
	assert.Contains(t, out, "Metamask")
	assert.Contains(t, out, "-600.00")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "-500.00")
	assert.Contains(t, out, "wallet balance 1000.00, margin ratio 0.0125, unrealized pnl -12.50")
	assert.NotContains(t, out, "Rewards")
	assert.NotContains(t, out, "open interest")
}

func TestRender_ProtocolRewards(t *testing.T) {
	summary := domain.NewSnapshotSummary("snap-2", time.Now(), []domain.VenueValuation{
		domain.NewVenueValuation(domain.VenueProtocol, []domain.NotionalValuation{
			domain.NewNotionalValuation(domain.VenueProtocol, "GLP", d("100"), d("1")),
		}),
	}, nil, &domain.ProtocolDetail{
		Rewards: []domain.RewardValuation{domain.NewRewardValuation("WETH", d("0.5"), d("2"), d("3000"))},
	})

	out := Render(domain.CycleResult{Status: domain.CycleSuccess, Summary: summary, Persisted: true})

	assert.Contains(t, out, "Rewards")
	assert.Contains(t, out, "WETH")
	assert.Contains(t, out, "1500.00")
	assert.Contains(t, out, "6000.00")
}

func TestRender_ProtocolPool(t *testing.T) {
	interest := []domain.OpenInterest{
		{Symbol: "WETH", Long: d("3000"), Short: d("2000")},
		{Symbol: "WBTC", Long: d("500"), Short: decimal.Zero},
	}
	summary := domain.NewSnapshotSummary("snap-4", time.Now(), []domain.VenueValuation{
		domain.NewVenueValuation(domain.VenueProtocol, []domain.NotionalValuation{
			domain.NewNotionalValuation(domain.VenueProtocol, "GLP", d("100"), d("1")),
		}),
	}, nil, &domain.ProtocolDetail{
		Exposure:     []domain.NotionalValuation{domain.NewNotionalValuation(domain.VenueProtocol, "WETH", d("0.02"), d("2000"))},
		Weights:      []domain.PoolWeight{{Symbol: "WETH", Notional: d("6000"), Weight: d("0.6")}},
		OpenInterest: interest,
		Split:        domain.NewOpenInterestSplit(interest),
	})

	out := Render(domain.CycleResult{Status: domain.CycleSuccess, Summary: summary, Persisted: true})

	assert.Contains(t, out, "Pool")
	assert.Contains(t, out, "WBTC")
	assert.Contains(t, out, "0.6000")
	assert.Contains(t, out, "40.00")
	assert.Contains(t, out, "open interest: 2 long 3500.00, 1 short -2000.00")
}

func TestRender_Failure(t *testing.T) {
	out := Render(domain.CycleResult{
		Status:  domain.CycleFailure,
		Summary: domain.NewSnapshotSummary("snap-3", time.Now(), nil, nil, nil),
		Err:     domain.ErrNoVenueValued,
		VenueErrors: map[domain.Venue]error{
			domain.VenueWallet: errors.Wrap(domain.ErrSourceUnavailable, "rpc down"),
		},
	})

	assert.Contains(t, out, "status: failure, persisted: false")
	assert.Contains(t, out, "no venue valued")
	assert.Contains(t, out, "Metamask: rpc down")
	assert.NotContains(t, out, "Snapshot snap-3")
}
