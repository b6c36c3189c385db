package onchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// Caller performs view calls and native balance lookups.
type Caller interface {
	Call(ctx context.Context, contract common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
}

// GMX reads pool, staking and reward state of the GMX protocol.
type GMX struct {
	caller    Caller
	contracts Contracts
	weth      common.Address
}

// NewGMX creates a GMX reader. weth is the wrapped native token the vault is configured with.
func NewGMX(caller Caller, contracts Contracts, weth common.Address) *GMX {
	return &GMX{caller: caller, contracts: contracts, weth: weth}
}

// VaultTokenInfo returns the vault state of tokens, in order.
func (g *GMX) VaultTokenInfo(ctx context.Context, tokens []Token) ([]VaultTokenInfo, error) {
	addrs := make([]common.Address, 0, len(tokens))
	for _, t := range tokens {
		addrs = append(addrs, t.Address)
	}

	// usdgAmount only feeds redemptionAmount, which is not used
	out, err := g.caller.Call(ctx, g.contracts.Reader, ReaderABI, "getVaultTokenInfoV2",
		g.contracts.Vault, g.weth, big.NewInt(0), addrs)
	if err != nil {
		return nil, err
	}

	raw, err := bigSliceOutput(out, "getVaultTokenInfoV2")
	if err != nil {
		return nil, err
	}

	return DecodeVaultTokenInfo(raw, tokens)
}

// AUM returns the pool's assets under management in USD. maximise selects the buy side.
func (g *GMX) AUM(ctx context.Context, maximise bool) (decimal.Decimal, error) {
	out, err := g.caller.Call(ctx, g.contracts.GlpManager, GlpManagerABI, "getAum", maximise)
	if err != nil {
		return decimal.Zero, err
	}

	v, err := bigOutput(out, "getAum")
	if err != nil {
		return decimal.Zero, err
	}

	return FromFixed(v, USDDecimals), nil
}

// StakedPoolShare returns the pool share tokens staked by account.
func (g *GMX) StakedPoolShare(ctx context.Context, account common.Address) (decimal.Decimal, error) {
	out, err := g.caller.Call(ctx, g.contracts.FeeGlpTracker, RewardTrackerABI, "stakedAmounts", account)
	if err != nil {
		return decimal.Zero, err
	}

	v, err := bigOutput(out, "stakedAmounts")
	if err != nil {
		return decimal.Zero, err
	}

	return FromFixed(v, USDGDecimals), nil
}

// DepositBalance returns the amount of token account deposited into the staked GMX tracker.
func (g *GMX) DepositBalance(ctx context.Context, account common.Address, token Token) (decimal.Decimal, error) {
	out, err := g.caller.Call(ctx, g.contracts.StakedGmxTracker, RewardTrackerABI, "depositBalances", account, token.Address)
	if err != nil {
		return decimal.Zero, err
	}

	v, err := bigOutput(out, "depositBalances")
	if err != nil {
		return decimal.Zero, err
	}

	return FromFixed(v, token.Decimals), nil
}

// Rewards returns the claimable and cumulative staking rewards of account.
func (g *GMX) Rewards(ctx context.Context, account common.Address) (domain.Rewards, error) {
	out, err := g.caller.Call(ctx, g.contracts.RewardReader, RewardReaderABI, "getStakingInfo",
		account, g.contracts.stakingTrackers())
	if err != nil {
		return domain.Rewards{}, err
	}

	raw, err := bigSliceOutput(out, "getStakingInfo")
	if err != nil {
		return domain.Rewards{}, err
	}

	return DecodeStakingInfo(raw)
}

func bigOutput(out []any, method string) (*big.Int, error) {
	if len(out) != 1 {
		return nil, errors.Wrapf(domain.ErrLayoutMismatch, "%s: got %d outputs", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Wrapf(domain.ErrLayoutMismatch, "%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}

func bigSliceOutput(out []any, method string) ([]*big.Int, error) {
	if len(out) != 1 {
		return nil, errors.Wrapf(domain.ErrLayoutMismatch, "%s: got %d outputs", method, len(out))
	}
	v, ok := out[0].([]*big.Int)
	if !ok {
		return nil, errors.Wrapf(domain.ErrLayoutMismatch, "%s: unexpected output type %T", method, out[0])
	}
	return v, nil
}
