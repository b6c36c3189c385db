// Package protocol reads staked positions, pool share and rewards from the GMX protocol.
package protocol

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/exposure/internal/domain"
	"github.com/vadiminshakov/exposure/internal/services/onchain"
)

// GMXReader protocol state queried by the reader.
type GMXReader interface {
	VaultTokenInfo(ctx context.Context, tokens []onchain.Token) ([]onchain.VaultTokenInfo, error)
	AUM(ctx context.Context, maximise bool) (decimal.Decimal, error)
	StakedPoolShare(ctx context.Context, account common.Address) (decimal.Decimal, error)
	DepositBalance(ctx context.Context, account common.Address, token onchain.Token) (decimal.Decimal, error)
	Rewards(ctx context.Context, account common.Address) (domain.Rewards, error)
}

// SupplyReader token supply lookup.
type SupplyReader interface {
	TotalSupply(ctx context.Context, token onchain.Token) (decimal.Decimal, error)
}

// Reader builds the protocol position set of one account.
type Reader struct {
	gmx         GMXReader
	supply      SupplyReader
	account     common.Address
	indexTokens []onchain.Token
	gmxToken    onchain.Token
	esGmxToken  onchain.Token
	glpToken    onchain.Token
	legacyMid   bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewReader creates a protocol reader for account. With legacyMid the pool share price
// averages the buy-side AUM with itself.
func NewReader(
	gmx GMXReader,
	supply SupplyReader,
	registry *domain.Registry,
	account string,
	legacyMid bool,
	logger *zap.Logger,
) (*Reader, error) {
	if !common.IsHexAddress(account) {
		return nil, errors.Errorf("invalid account address %q", account)
	}

	indexInfos, err := registry.Select(domain.GMXIndexAssets)
	if err != nil {
		return nil, err
	}
	indexTokens, err := onchain.TokensFromAssets(indexInfos)
	if err != nil {
		return nil, err
	}

	staked, err := registry.Select(domain.ProtocolStakedAssets)
	if err != nil {
		return nil, err
	}
	stakedTokens, err := onchain.TokensFromAssets(staked)
	if err != nil {
		return nil, err
	}

	return &Reader{
		gmx:         gmx,
		supply:      supply,
		account:     common.HexToAddress(account),
		indexTokens: indexTokens,
		gmxToken:    stakedTokens[0],
		esGmxToken:  stakedTokens[1],
		glpToken:    stakedTokens[2],
		legacyMid:   legacyMid,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// GetPositions reads every protocol figure of the account.
func (r *Reader) GetPositions(ctx context.Context) (*domain.ProtocolPositionSet, error) {
	var (
		vault                        []onchain.VaultTokenInfo
		buyAUM, sellAUM, totalSupply decimal.Decimal
		stakedGLP, stakedGMX, esGMX  decimal.Decimal
		rewards                      domain.Rewards
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		vault, err = r.gmx.VaultTokenInfo(gctx, r.indexTokens)
		return errors.Wrap(err, "vault token info")
	})
	g.Go(func() (err error) {
		buyAUM, err = r.gmx.AUM(gctx, true)
		return errors.Wrap(err, "buy aum")
	})
	g.Go(func() (err error) {
		sellAUM, err = r.gmx.AUM(gctx, false)
		return errors.Wrap(err, "sell aum")
	})
	g.Go(func() (err error) {
		totalSupply, err = r.supply.TotalSupply(gctx, r.glpToken)
		return errors.Wrap(err, "pool share supply")
	})
	g.Go(func() (err error) {
		stakedGLP, err = r.gmx.StakedPoolShare(gctx, r.account)
		return errors.Wrap(err, "staked pool share")
	})
	g.Go(func() (err error) {
		stakedGMX, err = r.gmx.DepositBalance(gctx, r.account, r.gmxToken)
		return errors.Wrap(err, "staked gmx")
	})
	g.Go(func() (err error) {
		esGMX, err = r.gmx.DepositBalance(gctx, r.account, r.esGmxToken)
		return errors.Wrap(err, "staked esgmx")
	})
	g.Go(func() (err error) {
		rewards, err = r.gmx.Rewards(gctx, r.account)
		return errors.Wrap(err, "rewards")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	share := domain.PoolShare{
		BuyAUM:      buyAUM,
		SellAUM:     sellAUM,
		TotalSupply: totalSupply,
		Staked:      stakedGLP,
	}
	price, err := share.FairValue(r.legacyMid)
	if err != nil {
		return nil, err
	}
	share.Price = price

	set := &domain.ProtocolPositionSet{
		VenuePositionSet: domain.NewVenuePositionSet(domain.VenueProtocol, r.now()),
		PoolShare:        share,
		Rewards:          rewards,
	}

	for _, p := range []domain.AssetAmount{
		{Symbol: r.gmxToken.Symbol, Quantity: stakedGMX},
		{Symbol: r.esGmxToken.Symbol, Quantity: esGMX},
		{Symbol: r.glpToken.Symbol, Quantity: stakedGLP},
	} {
		if err := set.Add(p.Symbol, p.Quantity); err != nil {
			return nil, err
		}
	}

	for _, info := range vault {
		set.PoolAmounts = append(set.PoolAmounts, domain.AssetAmount{Symbol: info.Symbol, Quantity: info.PoolAmount})
		set.Exposure = append(set.Exposure, domain.AssetAmount{Symbol: info.Symbol, Quantity: info.PoolAmount.Mul(stakedGLP).Div(totalSupply)})
		set.OpenInterest = append(set.OpenInterest, domain.OpenInterest{
			Symbol: info.Symbol,
			Long:   info.GuaranteedUsd,
			Short:  info.GlobalShortSize,
		})
	}

	r.logger.Debug("Protocol positions read",
		zap.String("pool_share_price", price.String()),
		zap.String("staked_pool_share", stakedGLP.String()))

	return set, nil
}
