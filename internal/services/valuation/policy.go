// Package valuation reduces venue positions and price quotes to one notional model.
package valuation

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

var one = decimal.NewFromInt(1)

// Policy resolves one USD price per asset from the quotes of one cycle.
type Policy struct {
	registry       *domain.Registry
	poolSharePrice decimal.Decimal
	hasPoolShare   bool
}

// NewPolicy creates a policy over the registry.
func NewPolicy(registry *domain.Registry) *Policy {
	return &Policy{registry: registry}
}

// WithPoolSharePrice returns a copy of the policy that prices the pool share token at price.
func (p *Policy) WithPoolSharePrice(price decimal.Decimal) *Policy {
	cp := *p
	cp.poolSharePrice = price
	cp.hasPoolShare = true
	return &cp
}

// Resolve returns the USD price of symbol under its asset's pricing rule. Missing sources are
// skipped; an asset left without any usable source is an incomplete quote set.
func (p *Policy) Resolve(book domain.PriceBook, symbol string) (decimal.Decimal, error) {
	info, ok := p.registry.Lookup(symbol)
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrIncompleteQuoteSet, "unknown asset %s", symbol)
	}

	switch info.Rule {
	case domain.RuleZeroValue:
		return decimal.Zero, nil
	case domain.RuleFixedOne:
		return one, nil
	case domain.RulePoolShare:
		if !p.hasPoolShare {
			return decimal.Zero, errors.Wrapf(domain.ErrIncompleteQuoteSet, "%s: pool share price unavailable", symbol)
		}
		return p.poolSharePrice, nil
	}

	prices := available(book, info.Quotes)
	if len(prices) == 0 {
		return decimal.Zero, errors.Wrapf(domain.ErrIncompleteQuoteSet, "%s: no source available", symbol)
	}

	switch info.Rule {
	case domain.RulePegMin:
		return decimal.Min(prices[0], prices[1:]...), nil
	case domain.RuleMean, domain.RuleProxy:
		return mean(prices), nil
	default:
		return decimal.Zero, errors.Errorf("%s: unsupported pricing rule %s", symbol, info.Rule)
	}
}

// SelfReference prices an exchange quote currency. Only stable quote currencies are supported.
func SelfReference(currency string, stable []string) (decimal.Decimal, error) {
	for _, s := range stable {
		if s == currency {
			return one, nil
		}
	}
	return decimal.Zero, errors.Wrapf(domain.ErrIncompleteQuoteSet, "quote currency %s is not a stable asset", currency)
}

func available(book domain.PriceBook, refs []domain.QuoteRef) []decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(refs))
	for _, ref := range refs {
		if price, ok := book.Get(ref.Symbol, ref.Source); ok {
			prices = append(prices, price)
		}
	}
	return prices
}

func mean(prices []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(prices[0], prices[1:]...).Div(decimal.NewFromInt(int64(len(prices))))
}
