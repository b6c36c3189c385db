package domain

import "github.com/shopspring/decimal"

// PriceSource identifies an independent price feed.
type PriceSource string

const (
	// SourceSpotExchange last traded price on the spot exchange, quoted in its account unit.
	SourceSpotExchange PriceSource = "spot_exchange"
	// SourceOnChainOracle the liquidity protocol's internal price feed.
	SourceOnChainOracle PriceSource = "onchain_oracle"
	// SourceAggregatorService general market-data aggregator.
	SourceAggregatorService PriceSource = "aggregator_service"
)

// PriceSources is the fixed order in which sources are consulted and reported.
var PriceSources = []PriceSource{SourceSpotExchange, SourceOnChainOracle, SourceAggregatorService}

// String returns the string representation.
func (s PriceSource) String() string {
	return string(s)
}

// PriceQuote price of one symbol from one source.
type PriceQuote struct {
	Symbol string
	Source PriceSource
	Price  decimal.Decimal
}

// PriceBook holds every quote collected in one cycle, keyed by quote symbol and source.
// A missing entry means the source does not price that symbol this cycle.
type PriceBook map[string]map[PriceSource]decimal.Decimal

// NewPriceBook creates an empty book.
func NewPriceBook() PriceBook {
	return make(PriceBook)
}

// Add stores the quote. Negative prices are rejected and reported as not stored.
func (b PriceBook) Add(q PriceQuote) bool {
	if q.Symbol == "" || q.Price.IsNegative() {
		return false
	}

	bySource, ok := b[q.Symbol]
	if !ok {
		bySource = make(map[PriceSource]decimal.Decimal, len(PriceSources))
		b[q.Symbol] = bySource
	}
	bySource[q.Source] = q.Price

	return true
}

// Get returns the price of symbol from source.
func (b PriceBook) Get(symbol string, source PriceSource) (decimal.Decimal, bool) {
	bySource, ok := b[symbol]
	if !ok {
		return decimal.Zero, false
	}
	price, ok := bySource[source]
	return price, ok
}

// Quotes returns all quotes for symbol in PriceSources order.
func (b PriceBook) Quotes(symbol string) []PriceQuote {
	quotes := make([]PriceQuote, 0, len(PriceSources))
	for _, source := range PriceSources {
		if price, ok := b.Get(symbol, source); ok {
			quotes = append(quotes, PriceQuote{Symbol: symbol, Source: source, Price: price})
		}
	}
	return quotes
}

// Merge copies every quote of other into b.
func (b PriceBook) Merge(other PriceBook) {
	for symbol, bySource := range other {
		for source, price := range bySource {
			b.Add(PriceQuote{Symbol: symbol, Source: source, Price: price})
		}
	}
}
