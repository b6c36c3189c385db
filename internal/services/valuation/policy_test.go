package valuation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/exposure/internal/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type quote struct {
	symbol string
	source domain.PriceSource
	price  string
}

func bookOf(quotes ...quote) domain.PriceBook {
	book := domain.NewPriceBook()
	for _, q := range quotes {
		book.Add(domain.PriceQuote{Symbol: q.symbol, Source: q.source, Price: d(q.price)})
	}
	return book
}

func TestPolicy_Resolve(t *testing.T) {
	registry, err := domain.NewRegistry(nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		symbol   string
		book     domain.PriceBook
		expected string
		wantErr  error
	}{
		{
			name:   "mean skips missing source",
			symbol: "LINK",
			book: bookOf(
				quote{"LINK", domain.SourceSpotExchange, "10"},
				quote{"LINK", domain.SourceAggregatorService, "12"},
			),
			expected: "11",
		},
		{
			name:   "mean of three",
			symbol: "UNI",
			book: bookOf(
				quote{"UNI", domain.SourceSpotExchange, "5"},
				quote{"UNI", domain.SourceOnChainOracle, "6"},
				quote{"UNI", domain.SourceAggregatorService, "7"},
			),
			expected: "6",
		},
		{
			name:   "peg takes the lower source",
			symbol: "FRAX",
			book: bookOf(
				quote{"FRAX", domain.SourceOnChainOracle, "1.001"},
				quote{"FRAX", domain.SourceAggregatorService, "0.998"},
			),
			expected: "0.998",
		},
		{
			name:   "peg ignores unconfigured spot quote",
			symbol: "FRAX",
			book: bookOf(
				quote{"FRAX", domain.SourceSpotExchange, "0.5"},
				quote{"FRAX", domain.SourceOnChainOracle, "1.001"},
			),
			expected: "1.001",
		},
		{
			name:   "proxy uses the underlying on spot",
			symbol: "WBTC",
			book: bookOf(
				quote{"BTC", domain.SourceSpotExchange, "30000"},
				quote{"WBTC", domain.SourceOnChainOracle, "30010"},
				quote{"WBTC", domain.SourceAggregatorService, "29990"},
				quote{"WBTC", domain.SourceSpotExchange, "1"},
			),
			expected: "30000",
		},
		{
			name:   "usdt excludes its own spot quote",
			symbol: "USDT",
			book: bookOf(
				quote{"USDT", domain.SourceSpotExchange, "1"},
				quote{"USDT", domain.SourceOnChainOracle, "1.0002"},
				quote{"USDT", domain.SourceAggregatorService, "0.9998"},
			),
			expected: "1",
		},
		{
			name:     "zero value regardless of quotes",
			symbol:   "esGMX",
			book:     bookOf(quote{"esGMX", domain.SourceAggregatorService, "40"}),
			expected: "0",
		},
		{
			name:     "fixed one",
			symbol:   "BUSD",
			book:     domain.NewPriceBook(),
			expected: "1",
		},
		{
			name:    "no usable source",
			symbol:  "DAI",
			book:    domain.NewPriceBook(),
			wantErr: domain.ErrIncompleteQuoteSet,
		},
		{
			name:    "pool share without protocol price",
			symbol:  "GLP",
			book:    domain.NewPriceBook(),
			wantErr: domain.ErrIncompleteQuoteSet,
		},
		{
			name:    "unknown asset",
			symbol:  "DOGE",
			book:    domain.NewPriceBook(),
			wantErr: domain.ErrIncompleteQuoteSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPolicy(registry).Resolve(tt.book, tt.symbol)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.expected).Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestPolicy_PoolShareNeverExternal(t *testing.T) {
	registry, err := domain.NewRegistry(nil)
	require.NoError(t, err)

	book := bookOf(quote{"GLP", domain.SourceAggregatorService, "2"})
	base := NewPolicy(registry)
	policy := base.WithPoolSharePrice(d("0.95"))

	got, err := policy.Resolve(book, "GLP")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("0.95")))

	_, err = base.Resolve(book, "GLP")
	assert.ErrorIs(t, err, domain.ErrIncompleteQuoteSet)
}

func TestSelfReference(t *testing.T) {
	stable := []string{"USDT", "BUSD"}

	got, err := SelfReference("BUSD", stable)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(1)))

	_, err = SelfReference("BTC", stable)
	assert.ErrorIs(t, err, domain.ErrIncompleteQuoteSet)
}
