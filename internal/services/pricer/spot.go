package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// SpotClient last traded spot prices quoted in a single account unit.
type SpotClient interface {
	Quote() string
	LastPrice(ctx context.Context, base string) (decimal.Decimal, error)
}

// Spot prices symbols by their last trade against the exchange's account unit.
type Spot struct {
	client SpotClient
	logger *zap.Logger
}

// NewSpot creates the spot exchange source.
func NewSpot(client SpotClient, logger *zap.Logger) *Spot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spot{client: client, logger: logger}
}

// Name returns the source identifier.
func (s *Spot) Name() domain.PriceSource {
	return domain.SourceSpotExchange
}

// Fetch prices each request. The account unit itself is priced at exactly 1 without a request.
func (s *Spot) Fetch(ctx context.Context, requests []domain.QuoteRequest) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(requests))

	var lastErr error
	for _, req := range requests {
		if req.Symbol == s.client.Quote() {
			prices[req.Symbol] = decimal.NewFromInt(1)
			continue
		}

		price, err := s.client.LastPrice(ctx, req.Symbol)
		if err != nil {
			s.logger.Warn("Spot price unavailable", zap.String("symbol", req.Symbol), zap.Error(err))
			lastErr = err
			continue
		}
		prices[req.Symbol] = price
	}

	if len(prices) == 0 && lastErr != nil {
		return nil, errors.Wrap(lastErr, "no spot price available")
	}

	return prices, nil
}
