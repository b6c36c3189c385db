// Package pricer collects USD quotes from independent price sources.
package pricer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// Source one independent price feed.
type Source interface {
	Name() domain.PriceSource
	// Fetch returns the USD price of every request it could price. Missing symbols are unavailable.
	Fetch(ctx context.Context, requests []domain.QuoteRequest) (map[string]decimal.Decimal, error)
}

// Adapter queries every source concurrently and merges the results into one price book.
type Adapter struct {
	registry *domain.Registry
	sources  []Source
	timeout  time.Duration
	logger   *zap.Logger
}

// NewAdapter creates an adapter. Each source call is bounded by timeout.
func NewAdapter(registry *domain.Registry, sources []Source, timeout time.Duration, logger *zap.Logger) *Adapter {
	return &Adapter{registry: registry, sources: sources, timeout: timeout, logger: logger}
}

type sourceResult struct {
	prices map[string]decimal.Decimal
	err    error
}

// GetPrices returns the quotes of every source for the universe. A failing source is reported
// and never aborts the others.
func (a *Adapter) GetPrices(ctx context.Context, universe []domain.Asset) (domain.PriceBook, []domain.SourceFailure) {
	book := domain.NewPriceBook()

	infos, err := a.registry.Select(universe)
	if err != nil {
		failures := make([]domain.SourceFailure, 0, len(a.sources))
		for _, s := range a.sources {
			failures = append(failures, domain.SourceFailure{Source: s.Name(), Err: errors.Wrap(err, "select universe")})
		}
		return book, failures
	}

	results := make([]sourceResult, len(a.sources))

	var g errgroup.Group
	g.SetLimit(len(a.sources) + 1)
	for i, source := range a.sources {
		requests := a.registry.QuoteRequests(source.Name(), infos)
		if len(requests) == 0 {
			continue
		}

		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			prices, err := source.Fetch(fetchCtx, requests)
			results[i] = sourceResult{prices: prices, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var failures []domain.SourceFailure
	for i, source := range a.sources {
		res := results[i]
		if res.err != nil {
			err := errors.Wrapf(domain.ErrSourceUnavailable, "%s: %v", source.Name(), res.err)
			a.logger.Warn("Price source unavailable", zap.String("source", source.Name().String()), zap.Error(res.err))
			failures = append(failures, domain.SourceFailure{Source: source.Name(), Err: err})
			continue
		}

		for symbol, price := range res.prices {
			if !book.Add(domain.PriceQuote{Symbol: symbol, Source: source.Name(), Price: price}) {
				a.logger.Warn("Dropped invalid quote",
					zap.String("source", source.Name().String()),
					zap.String("symbol", symbol),
					zap.String("price", price.String()))
			}
		}
	}

	return book, failures
}
