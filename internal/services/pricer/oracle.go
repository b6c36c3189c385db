package pricer

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
	"github.com/vadiminshakov/exposure/internal/services/onchain"
)

// VaultReader vault state of the liquidity protocol.
type VaultReader interface {
	VaultTokenInfo(ctx context.Context, tokens []onchain.Token) ([]onchain.VaultTokenInfo, error)
}

// Oracle prices index tokens with the protocol's own primary price, not maximised.
type Oracle struct {
	vault    VaultReader
	registry *domain.Registry
}

// NewOracle creates the on-chain oracle source.
func NewOracle(vault VaultReader, registry *domain.Registry) *Oracle {
	return &Oracle{vault: vault, registry: registry}
}

// Name returns the source identifier.
func (o *Oracle) Name() domain.PriceSource {
	return domain.SourceOnChainOracle
}

// Fetch reads every requested token in one vault call. Symbols without a token contract are skipped.
func (o *Oracle) Fetch(ctx context.Context, requests []domain.QuoteRequest) (map[string]decimal.Decimal, error) {
	tokens := make([]onchain.Token, 0, len(requests))
	for _, req := range requests {
		info, ok := o.registry.Lookup(req.Symbol)
		if !ok {
			continue
		}
		token, err := onchain.TokenFromAsset(info)
		if err != nil {
			continue
		}
		tokens = append(tokens, token)
	}

	prices := make(map[string]decimal.Decimal, len(tokens))
	if len(tokens) == 0 {
		return prices, nil
	}

	infos, err := o.vault.VaultTokenInfo(ctx, tokens)
	if err != nil {
		return nil, err
	}

	for _, info := range infos {
		// an unlisted token reports a zero price
		if !info.PrimaryPrice.IsPositive() {
			continue
		}
		prices[info.Symbol] = info.PrimaryPrice
	}

	return prices, nil
}
