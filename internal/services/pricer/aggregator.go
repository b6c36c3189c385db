package pricer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, out any) error
}

// Aggregator prices tokens by contract address through a CoinGecko-compatible API.
type Aggregator struct {
	client   JSONGetter
	baseURL  string
	platform string
}

// NewAggregator creates the aggregator source. platform is the asset platform id, e.g. arbitrum-one.
func NewAggregator(client JSONGetter, baseURL, platform string) *Aggregator {
	return &Aggregator{client: client, baseURL: strings.TrimRight(baseURL, "/"), platform: platform}
}

// Name returns the source identifier.
func (a *Aggregator) Name() domain.PriceSource {
	return domain.SourceAggregatorService
}

// Fetch requests all addressed tokens at once. Requests without a contract address are skipped.
func (a *Aggregator) Fetch(ctx context.Context, requests []domain.QuoteRequest) (map[string]decimal.Decimal, error) {
	bySymbol := make(map[string]string, len(requests))
	addrs := make([]string, 0, len(requests))
	for _, req := range requests {
		if req.Address == "" {
			continue
		}
		addr := strings.ToLower(req.Address)
		bySymbol[req.Symbol] = addr
		addrs = append(addrs, addr)
	}

	prices := make(map[string]decimal.Decimal, len(addrs))
	if len(addrs) == 0 {
		return prices, nil
	}

	query := url.Values{}
	query.Set("contract_addresses", strings.Join(addrs, ","))
	query.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/simple/token_price/%s?%s", a.baseURL, a.platform, query.Encode())

	var resp map[string]map[string]decimal.Decimal
	if err := a.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	// response keys are lower-case addresses
	for symbol, addr := range bySymbol {
		quotes, ok := resp[addr]
		if !ok {
			continue
		}
		if usd, ok := quotes["usd"]; ok {
			prices[symbol] = usd
		}
	}

	return prices, nil
}
