package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// AssetAmount quantity of one asset in native units. Negative values are allowed.
type AssetAmount struct {
	Symbol   string
	Quantity decimal.Decimal
}

// VenuePositionSet raw per-venue amounts fetched in one cycle.
type VenuePositionSet struct {
	Venue     Venue
	FetchedAt time.Time
	order     []string
	positions map[string]AssetAmount
}

// NewVenuePositionSet creates an empty set for venue.
func NewVenuePositionSet(venue Venue, fetchedAt time.Time) *VenuePositionSet {
	return &VenuePositionSet{
		Venue:     venue,
		FetchedAt: fetchedAt,
		positions: make(map[string]AssetAmount),
	}
}

// Add records an amount. A symbol may be added only once.
func (s *VenuePositionSet) Add(symbol string, quantity decimal.Decimal) error {
	if _, dup := s.positions[symbol]; dup {
		return errors.Errorf("duplicate %s position %s", s.Venue, symbol)
	}
	s.order = append(s.order, symbol)
	s.positions[symbol] = AssetAmount{Symbol: symbol, Quantity: quantity}
	return nil
}

// Get returns the amount held for symbol.
func (s *VenuePositionSet) Get(symbol string) (AssetAmount, bool) {
	a, ok := s.positions[symbol]
	return a, ok
}

// Amounts returns every amount in insertion order.
func (s *VenuePositionSet) Amounts() []AssetAmount {
	out := make([]AssetAmount, 0, len(s.order))
	for _, symbol := range s.order {
		out = append(out, s.positions[symbol])
	}
	return out
}

// Len returns the number of positions.
func (s *VenuePositionSet) Len() int {
	return len(s.order)
}

// ExchangeBalance raw futures wallet entry of one asset.
type ExchangeBalance struct {
	Asset         string
	WalletBalance decimal.Decimal
	MarginBalance decimal.Decimal
	MaintMargin   decimal.Decimal
}

// HedgePosition futures position of one tracked pair, notional in the pair's quote currency.
type HedgePosition struct {
	Pair             Pair
	Notional         decimal.Decimal
	UnrealizedProfit decimal.Decimal
	PositionAmount   decimal.Decimal
	FundingRate      decimal.Decimal
	Leverage         decimal.Decimal
}

// Base returns the base asset of the pair.
func (h HedgePosition) Base() string {
	return h.Pair.From
}

// Quote returns the quote asset of the pair.
func (h HedgePosition) Quote() string {
	return h.Pair.To
}

// ExchangePositionSet exchange venue data. Positions are keyed by pair symbol and hold the
// venue-reported notional in quote-currency units.
type ExchangePositionSet struct {
	*VenuePositionSet
	Balances    []ExchangeBalance
	Hedges      []HedgePosition
	MarginRatio decimal.Decimal
}

// PoolShare on-chain figures backing the liquidity-pool share token.
type PoolShare struct {
	// BuyAUM pool value favouring buyers (maximised prices), USD.
	BuyAUM decimal.Decimal
	// SellAUM pool value favouring sellers (minimised prices), USD.
	SellAUM     decimal.Decimal
	TotalSupply decimal.Decimal
	// Staked share tokens held by the account.
	Staked decimal.Decimal
	// Price fair value of one share token, USD.
	Price decimal.Decimal
}

// FairValue returns (buyAUM + sellAUM) / 2 / totalSupply. With legacyMid the buy side is
// averaged with itself, reproducing figures produced by earlier versions.
func (p PoolShare) FairValue(legacyMid bool) (decimal.Decimal, error) {
	if p.TotalSupply.IsZero() {
		return decimal.Zero, errors.Wrap(ErrDivideByZero, "pool share total supply is zero")
	}

	other := p.SellAUM
	if legacyMid {
		other = p.BuyAUM
	}
	mid := p.BuyAUM.Add(other).Div(decimal.NewFromInt(2))

	return mid.Div(p.TotalSupply), nil
}

// Rewards claimable and lifetime-cumulative staking rewards per reward token.
type Rewards struct {
	WETHClaimable   decimal.Decimal
	WETHCumulative  decimal.Decimal
	EsGMXClaimable  decimal.Decimal
	EsGMXCumulative decimal.Decimal
}

// OpenInterest pool-wide long and short size of one index asset, USD.
type OpenInterest struct {
	Symbol string
	Long   decimal.Decimal
	Short  decimal.Decimal
}

// ProtocolPositionSet protocol venue data. Positions hold staked protocol tokens;
// Exposure holds the index tokens owned through the pool share.
type ProtocolPositionSet struct {
	*VenuePositionSet
	Exposure     []AssetAmount
	PoolAmounts  []AssetAmount
	PoolShare    PoolShare
	Rewards      Rewards
	OpenInterest []OpenInterest
}
