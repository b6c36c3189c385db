package valuation

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// Inputs everything one cycle collected. A nil venue set means the venue was unavailable.
type Inputs struct {
	Exchange *domain.ExchangePositionSet
	Protocol *domain.ProtocolPositionSet
	Wallet   *domain.VenuePositionSet
	Prices   domain.PriceBook
}

// Aggregator values venue positions.
type Aggregator struct {
	registry *domain.Registry
	stable   []string
}

// NewAggregator creates an aggregator. stable lists the assets the exchange account may hold.
func NewAggregator(registry *domain.Registry, stable []string) *Aggregator {
	return &Aggregator{registry: registry, stable: stable}
}

// Aggregate values every available venue into a summary. A venue whose valuation fails is left
// out of the summary and reported in the returned map. Identical inputs give identical figures.
func (a *Aggregator) Aggregate(in Inputs, id string, createdAt time.Time) (*domain.SnapshotSummary, map[domain.Venue]error) {
	failures := make(map[domain.Venue]error)

	policy := NewPolicy(a.registry)
	if in.Protocol != nil {
		policy = policy.WithPoolSharePrice(in.Protocol.PoolShare.Price)
	}

	var (
		valuations []domain.VenueValuation
		exchange   *domain.ExchangeDetail
		protocol   *domain.ProtocolDetail
	)

	if in.Exchange != nil {
		v, detail, err := a.valueExchange(in.Exchange)
		if err != nil {
			failures[domain.VenueExchange] = err
		} else {
			valuations = append(valuations, v)
			exchange = &detail
		}
	}

	if in.Protocol != nil {
		v, detail, err := a.valueProtocol(policy, in.Prices, in.Protocol)
		if err != nil {
			failures[domain.VenueProtocol] = err
		} else {
			valuations = append(valuations, v)
			protocol = &detail
		}
	}

	if in.Wallet != nil {
		v, err := valueAmounts(policy, in.Prices, domain.VenueWallet, in.Wallet.Amounts())
		if err != nil {
			failures[domain.VenueWallet] = err
		} else {
			valuations = append(valuations, domain.NewVenueValuation(domain.VenueWallet, v))
		}
	}

	return domain.NewSnapshotSummary(id, createdAt, valuations, exchange, protocol), failures
}

func (a *Aggregator) isStable(asset string) bool {
	for _, s := range a.stable {
		if s == asset {
			return true
		}
	}
	return false
}

// valueExchange values hedges by venue-reported notional in their stable quote currency.
func (a *Aggregator) valueExchange(set *domain.ExchangePositionSet) (domain.VenueValuation, domain.ExchangeDetail, error) {
	walletBalance := decimal.Zero
	for _, b := range set.Balances {
		if !a.isStable(b.Asset) {
			if !b.WalletBalance.IsZero() {
				return domain.VenueValuation{}, domain.ExchangeDetail{},
					errors.Wrapf(domain.ErrUnexpectedAssetHeld, "%s balance %s", b.Asset, b.WalletBalance)
			}
			continue
		}
		walletBalance = walletBalance.Add(b.WalletBalance.Mul(one))
	}

	detail := domain.ExchangeDetail{
		WalletBalance: walletBalance,
		MarginRatio:   set.MarginRatio,
		UnrealizedPnL: decimal.Zero,
	}

	positions := make([]domain.NotionalValuation, 0, len(set.Hedges))
	for _, h := range set.Hedges {
		price, err := SelfReference(h.Quote(), a.stable)
		if err != nil {
			return domain.VenueValuation{}, domain.ExchangeDetail{}, errors.Wrap(err, h.Pair.Symbol())
		}

		v := domain.NewNotionalValuation(domain.VenueExchange, h.Pair.Symbol(), h.Notional, price)
		positions = append(positions, v)
		detail.Hedges = append(detail.Hedges, domain.HedgeValuation{NotionalValuation: v, Hedge: h})
		detail.UnrealizedPnL = detail.UnrealizedPnL.Add(h.UnrealizedProfit)
	}

	return domain.NewVenueValuation(domain.VenueExchange, positions), detail, nil
}

// valueProtocol values staked tokens. Look-through exposure is reported but not added to the
// venue total, since it is already contained in the pool share value.
func (a *Aggregator) valueProtocol(policy *Policy, book domain.PriceBook, set *domain.ProtocolPositionSet) (domain.VenueValuation, domain.ProtocolDetail, error) {
	positions, err := valueAmounts(policy, book, domain.VenueProtocol, set.Amounts())
	if err != nil {
		return domain.VenueValuation{}, domain.ProtocolDetail{}, err
	}

	exposure, err := valueAmounts(policy, book, domain.VenueProtocol, set.Exposure)
	if err != nil {
		return domain.VenueValuation{}, domain.ProtocolDetail{}, errors.Wrap(err, "exposure")
	}

	rewards, err := valueRewards(policy, book, set.Rewards)
	if err != nil {
		return domain.VenueValuation{}, domain.ProtocolDetail{}, errors.Wrap(err, "rewards")
	}

	weights, err := poolWeights(policy, book, set.PoolAmounts)
	if err != nil {
		return domain.VenueValuation{}, domain.ProtocolDetail{}, errors.Wrap(err, "pool weights")
	}

	detail := domain.ProtocolDetail{
		PoolSharePrice: set.PoolShare.Price,
		Exposure:       exposure,
		Rewards:        rewards,
		Split:          domain.NewOpenInterestSplit(set.OpenInterest),
		Weights:        weights,
		OpenInterest:   append([]domain.OpenInterest(nil), set.OpenInterest...),
	}

	return domain.NewVenueValuation(domain.VenueProtocol, positions), detail, nil
}

func valueAmounts(policy *Policy, book domain.PriceBook, venue domain.Venue, amounts []domain.AssetAmount) ([]domain.NotionalValuation, error) {
	out := make([]domain.NotionalValuation, 0, len(amounts))
	for _, amount := range amounts {
		price, err := policy.Resolve(book, amount.Symbol)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.NewNotionalValuation(venue, amount.Symbol, amount.Quantity, price))
	}
	return out, nil
}

// valueRewards prices WETH fees at the resolved WETH price and esGMX under its zero-value rule.
func valueRewards(policy *Policy, book domain.PriceBook, r domain.Rewards) ([]domain.RewardValuation, error) {
	wethPrice, err := policy.Resolve(book, domain.AssetWETH.String())
	if err != nil {
		return nil, err
	}
	esGMXPrice, err := policy.Resolve(book, domain.AssetEsGMX.String())
	if err != nil {
		return nil, err
	}

	return []domain.RewardValuation{
		domain.NewRewardValuation(domain.AssetWETH.String(), r.WETHClaimable, r.WETHCumulative, wethPrice),
		domain.NewRewardValuation(domain.AssetEsGMX.String(), r.EsGMXClaimable, r.EsGMXCumulative, esGMXPrice),
	}, nil
}

// poolWeights returns each index asset's share of the pool's total value.
func poolWeights(policy *Policy, book domain.PriceBook, amounts []domain.AssetAmount) ([]domain.PoolWeight, error) {
	values, err := valueAmounts(policy, book, domain.VenueProtocol, amounts)
	if err != nil {
		return nil, err
	}

	total := domain.SumNotional(values)
	weights := make([]domain.PoolWeight, 0, len(values))
	for _, v := range values {
		w := domain.PoolWeight{Symbol: v.Symbol, Notional: v.Notional, Weight: decimal.Zero}
		if !total.IsZero() {
			w.Weight = v.Notional.Div(total)
		}
		weights = append(weights, w)
	}
	return weights, nil
}
