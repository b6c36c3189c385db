// Package exchange reads the futures hedge account.
package exchange

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/exposure/internal/clients"
	"github.com/vadiminshakov/exposure/internal/domain"
)

const fundingConcurrency = 4

// FuturesClient futures account access.
type FuturesClient interface {
	FetchBalance(ctx context.Context) ([]domain.ExchangeBalance, error)
	FetchPositions(ctx context.Context) ([]clients.FuturesPosition, error)
	FetchFundingRate(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// Reader builds the exchange position set for a fixed list of tracked pairs.
type Reader struct {
	client FuturesClient
	pairs  []domain.Pair
	stable []string
	logger *zap.Logger
	now    func() time.Time
}

// NewReader creates a reader tracking pairs. stable lists the margin assets.
func NewReader(client FuturesClient, pairs, stable []string, logger *zap.Logger) (*Reader, error) {
	parsed := make([]domain.Pair, 0, len(pairs))
	for _, symbol := range pairs {
		pair, err := domain.ParsePair(symbol)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, pair)
	}

	return &Reader{client: client, pairs: parsed, stable: stable, logger: logger, now: time.Now}, nil
}

// Pairs returns the tracked pairs in reporting order.
func (r *Reader) Pairs() []domain.Pair {
	return append([]domain.Pair(nil), r.pairs...)
}

// GetPositions fetches balances, positions and funding rates of every tracked pair.
func (r *Reader) GetPositions(ctx context.Context) (*domain.ExchangePositionSet, error) {
	balances, err := r.client.FetchBalance(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch balance")
	}

	if err := CheckHeldAssets(balances, r.stable); err != nil {
		return nil, err
	}
	ratio, err := MarginRatio(balances, r.stable)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.FetchPositions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch positions")
	}
	merged := mergePositions(raw)

	rates := make([]decimal.Decimal, len(r.pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fundingConcurrency)
	for i, pair := range r.pairs {
		g.Go(func() error {
			rate, err := r.client.FetchFundingRate(gctx, pair)
			if err != nil {
				return errors.Wrapf(err, "fetch funding rate of %s", pair.Symbol())
			}
			rates[i] = rate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &domain.ExchangePositionSet{
		VenuePositionSet: domain.NewVenuePositionSet(domain.VenueExchange, r.now()),
		Balances:         balances,
		MarginRatio:      ratio,
	}

	for i, pair := range r.pairs {
		p, ok := merged[pair.Symbol()]
		if !ok {
			r.logger.Debug("Tracked pair has no position", zap.String("pair", pair.Symbol()))
		}

		leverage := p.Leverage
		if p.PositionAmount.IsZero() {
			leverage = decimal.Zero
		}

		hedge := domain.HedgePosition{
			Pair:             pair,
			Notional:         p.Notional,
			UnrealizedProfit: p.UnrealizedProfit,
			PositionAmount:   p.PositionAmount,
			FundingRate:      rates[i],
			Leverage:         leverage,
		}
		set.Hedges = append(set.Hedges, hedge)

		if err := set.Add(pair.Symbol(), hedge.Notional); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// mergePositions sums entries of the same symbol, such as long and short legs in hedge mode.
// Leverage is taken from the entry that holds a position.
func mergePositions(raw []clients.FuturesPosition) map[string]clients.FuturesPosition {
	merged := make(map[string]clients.FuturesPosition, len(raw))
	for _, p := range raw {
		cur, ok := merged[p.Symbol]
		if !ok {
			merged[p.Symbol] = p
			continue
		}

		if cur.PositionAmount.IsZero() && !p.PositionAmount.IsZero() {
			cur.Leverage = p.Leverage
		}
		cur.PositionAmount = cur.PositionAmount.Add(p.PositionAmount)
		cur.Notional = cur.Notional.Add(p.Notional)
		cur.UnrealizedProfit = cur.UnrealizedProfit.Add(p.UnrealizedProfit)
		merged[p.Symbol] = cur
	}
	return merged
}

// CheckHeldAssets fails with domain.ErrUnexpectedAssetHeld when a non-stable asset has a
// non-zero wallet balance.
func CheckHeldAssets(balances []domain.ExchangeBalance, stable []string) error {
	isStable := make(map[string]bool, len(stable))
	for _, s := range stable {
		isStable[s] = true
	}
	for _, b := range balances {
		if !isStable[b.Asset] && !b.WalletBalance.IsZero() {
			return errors.Wrapf(domain.ErrUnexpectedAssetHeld, "%s balance %s", b.Asset, b.WalletBalance)
		}
	}
	return nil
}

// MarginRatio returns total maintenance margin over total margin balance of the stable assets.
func MarginRatio(balances []domain.ExchangeBalance, stable []string) (decimal.Decimal, error) {
	isStable := make(map[string]bool, len(stable))
	for _, s := range stable {
		isStable[s] = true
	}

	maint := decimal.Zero
	margin := decimal.Zero
	for _, b := range balances {
		if !isStable[b.Asset] {
			continue
		}
		maint = maint.Add(b.MaintMargin)
		margin = margin.Add(b.MarginBalance)
	}

	if margin.IsZero() {
		return decimal.Zero, errors.Wrap(domain.ErrDivideByZero, "margin balance is zero")
	}

	return maint.Div(margin), nil
}
