// Package wallet reads token balances of a self-custodied account.
package wallet

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/exposure/internal/domain"
	"github.com/vadiminshakov/exposure/internal/services/onchain"
)

const balanceConcurrency = 4

// BalanceReader token and native balance lookups.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token onchain.Token, account common.Address) (decimal.Decimal, error)
	NativeBalance(ctx context.Context, account common.Address) (decimal.Decimal, error)
}

// Reader builds the wallet position set of one account.
type Reader struct {
	balances BalanceReader
	account  common.Address
	assets   []domain.AssetInfo
	now      func() time.Time
}

// NewReader creates a wallet reader for account over the given assets, in order.
func NewReader(balances BalanceReader, registry *domain.Registry, account string, assets []domain.Asset) (*Reader, error) {
	if !common.IsHexAddress(account) {
		return nil, errors.Errorf("invalid account address %q", account)
	}

	infos, err := registry.Select(assets)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if !info.Native && !common.IsHexAddress(info.Address) {
			return nil, errors.Errorf("asset %s has invalid address %q", info.ID, info.Address)
		}
	}

	return &Reader{
		balances: balances,
		account:  common.HexToAddress(account),
		assets:   infos,
		now:      time.Now,
	}, nil
}

// GetPositions reads every configured balance. Any failed lookup fails the venue.
func (r *Reader) GetPositions(ctx context.Context) (*domain.VenuePositionSet, error) {
	amounts := make([]decimal.Decimal, len(r.assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceConcurrency)
	for i, info := range r.assets {
		g.Go(func() error {
			var (
				amount decimal.Decimal
				err    error
			)
			if info.Native {
				amount, err = r.balances.NativeBalance(gctx, r.account)
			} else {
				var token onchain.Token
				token, err = onchain.TokenFromAsset(info)
				if err == nil {
					amount, err = r.balances.BalanceOf(gctx, token, r.account)
				}
			}
			if err != nil {
				return errors.Wrapf(err, "balance of %s", info.ID)
			}
			amounts[i] = amount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := domain.NewVenuePositionSet(domain.VenueWallet, r.now())
	for i, info := range r.assets {
		if err := set.Add(info.Symbol(), amounts[i]); err != nil {
			return nil, err
		}
	}

	return set, nil
}
