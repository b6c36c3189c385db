package domain

import "github.com/shopspring/decimal"

// NotionalValuation USD value of one position.
type NotionalValuation struct {
	Symbol   string
	Venue    Venue
	Quantity decimal.Decimal
	USDPrice decimal.Decimal
	Notional decimal.Decimal
}

// NewNotionalValuation creates a valuation with Notional = quantity * price, unrounded.
func NewNotionalValuation(venue Venue, symbol string, quantity, usdPrice decimal.Decimal) NotionalValuation {
	return NotionalValuation{
		Symbol:   symbol,
		Venue:    venue,
		Quantity: quantity,
		USDPrice: usdPrice,
		Notional: quantity.Mul(usdPrice),
	}
}

// HedgeValuation valued futures hedge with its raw venue fields.
type HedgeValuation struct {
	NotionalValuation
	Hedge HedgePosition
}

// RewardValuation notional breakdown of one reward token.
type RewardValuation struct {
	Token              string
	USDPrice           decimal.Decimal
	Claimable          decimal.Decimal
	Cumulative         decimal.Decimal
	ClaimableNotional  decimal.Decimal
	CumulativeNotional decimal.Decimal
}

// NewRewardValuation prices claimable and cumulative amounts at usdPrice.
func NewRewardValuation(token string, claimable, cumulative, usdPrice decimal.Decimal) RewardValuation {
	return RewardValuation{
		Token:              token,
		USDPrice:           usdPrice,
		Claimable:          claimable,
		Cumulative:         cumulative,
		ClaimableNotional:  claimable.Mul(usdPrice),
		CumulativeNotional: cumulative.Mul(usdPrice),
	}
}

// LongShortSplit count and USD size of pool-wide long versus short open interest.
// ShortNotional is negative.
type LongShortSplit struct {
	LongCount     int
	ShortCount    int
	LongNotional  decimal.Decimal
	ShortNotional decimal.Decimal
}

// NewOpenInterestSplit counts every index asset with long interest as a long and every asset
// with short interest as a short. Zero sides are ignored.
func NewOpenInterestSplit(interest []OpenInterest) LongShortSplit {
	split := LongShortSplit{LongNotional: decimal.Zero, ShortNotional: decimal.Zero}
	for _, oi := range interest {
		if oi.Long.IsPositive() {
			split.LongCount++
			split.LongNotional = split.LongNotional.Add(oi.Long)
		}
		if oi.Short.IsPositive() {
			split.ShortCount++
			split.ShortNotional = split.ShortNotional.Sub(oi.Short)
		}
	}
	return split
}

// PoolWeight share of one index asset in the pool's total value.
type PoolWeight struct {
	Symbol   string
	Notional decimal.Decimal
	Weight   decimal.Decimal
}

// ExchangeDetail exchange venue figures beyond the per-symbol breakdown.
type ExchangeDetail struct {
	Hedges        []HedgeValuation
	WalletBalance decimal.Decimal
	MarginRatio   decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// ProtocolDetail protocol venue figures beyond the per-symbol breakdown.
type ProtocolDetail struct {
	PoolSharePrice decimal.Decimal
	Exposure       []NotionalValuation
	Rewards        []RewardValuation
	Split          LongShortSplit
	Weights        []PoolWeight
	OpenInterest   []OpenInterest
}

// PoolAsset pool figures of one index asset.
type PoolAsset struct {
	Symbol           string
	ExposureAmount   decimal.Decimal
	ExposureNotional decimal.Decimal
	PoolNotional     decimal.Decimal
	Weight           decimal.Decimal
	LongInterest     decimal.Decimal
	ShortInterest    decimal.Decimal
}

// PoolAssets merges weights, exposure and open interest into one entry per index asset, in
// order of first appearance. Figures an asset has no input for are zero.
func (d ProtocolDetail) PoolAssets() []PoolAsset {
	var order []string
	assets := make(map[string]*PoolAsset)
	asset := func(symbol string) *PoolAsset {
		a, ok := assets[symbol]
		if !ok {
			z := decimal.Zero
			a = &PoolAsset{Symbol: symbol, ExposureAmount: z, ExposureNotional: z, PoolNotional: z, Weight: z, LongInterest: z, ShortInterest: z}
			assets[symbol] = a
			order = append(order, symbol)
		}
		return a
	}

	for _, w := range d.Weights {
		a := asset(w.Symbol)
		a.PoolNotional, a.Weight = w.Notional, w.Weight
	}
	for _, v := range d.Exposure {
		a := asset(v.Symbol)
		a.ExposureAmount, a.ExposureNotional = v.Quantity, v.Notional
	}
	for _, oi := range d.OpenInterest {
		a := asset(oi.Symbol)
		a.LongInterest, a.ShortInterest = oi.Long, oi.Short
	}

	out := make([]PoolAsset, 0, len(order))
	for _, symbol := range order {
		out = append(out, *assets[symbol])
	}
	return out
}

// SumNotional returns the sum of the notionals.
func SumNotional(valuations []NotionalValuation) decimal.Decimal {
	total := decimal.Zero
	for _, v := range valuations {
		total = total.Add(v.Notional)
	}
	return total
}
