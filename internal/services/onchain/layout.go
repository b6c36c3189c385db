package onchain

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

const (
	// USDDecimals scale of vault prices, AUM and USD sizes.
	USDDecimals = 30
	// USDGDecimals scale of USDG amounts, share token supply and staking figures.
	USDGDecimals = 18
)

// Scale fixed-point scale of one layout field.
type Scale int

const (
	// ScaleToken field is in the token's own decimals.
	ScaleToken Scale = iota
	ScaleUSD
	ScaleUSDG
	// ScaleNone field is a plain integer.
	ScaleNone
)

// Field one entry of a flattened multi-field response.
type Field struct {
	Name   string
	Offset int
	Scale  Scale
}

// Layout describes a response made of Stride fields repeated per item.
type Layout struct {
	Name   string
	Stride int
	Fields []Field
}

// check validates that raw holds exactly items records.
func (l Layout) check(raw []*big.Int, items int) error {
	if len(raw) != l.Stride*items {
		return errors.Wrapf(domain.ErrLayoutMismatch, "%s: got %d values, want %d x %d", l.Name, len(raw), items, l.Stride)
	}
	return nil
}

// VaultTokenInfoV2 layout of Reader.getVaultTokenInfoV2.
var VaultTokenInfoV2 = Layout{
	Name:   "getVaultTokenInfoV2",
	Stride: 14,
	Fields: []Field{
		{Name: "poolAmount", Offset: 0, Scale: ScaleToken},
		{Name: "reservedAmount", Offset: 1, Scale: ScaleToken},
		{Name: "usdgAmount", Offset: 2, Scale: ScaleUSDG},
		{Name: "redemptionAmount", Offset: 3, Scale: ScaleToken},
		{Name: "tokenWeight", Offset: 4, Scale: ScaleNone},
		{Name: "bufferAmount", Offset: 5, Scale: ScaleToken},
		{Name: "maxUsdgAmount", Offset: 6, Scale: ScaleUSDG},
		{Name: "globalShortSize", Offset: 7, Scale: ScaleUSD},
		{Name: "maxGlobalShortSize", Offset: 8, Scale: ScaleUSD},
		{Name: "minPrice", Offset: 9, Scale: ScaleUSD},
		{Name: "maxPrice", Offset: 10, Scale: ScaleUSD},
		{Name: "guaranteedUsd", Offset: 11, Scale: ScaleUSD},
		{Name: "primaryPrice", Offset: 12, Scale: ScaleUSD},
		{Name: "maxPrimaryPrice", Offset: 13, Scale: ScaleUSD},
	},
}

// StakingInfo layout of RewardReader.getStakingInfo.
var StakingInfo = Layout{
	Name:   "getStakingInfo",
	Stride: 5,
	Fields: []Field{
		{Name: "claimable", Offset: 0, Scale: ScaleUSDG},
		{Name: "tokensPerInterval", Offset: 1, Scale: ScaleUSDG},
		{Name: "averageStakedAmounts", Offset: 2, Scale: ScaleUSDG},
		{Name: "cumulativeRewards", Offset: 3, Scale: ScaleUSDG},
		{Name: "totalSupply", Offset: 4, Scale: ScaleUSDG},
	},
}

// decodeRecord scales one record of l into a map keyed by field name.
func (l Layout) decodeRecord(raw []*big.Int, item int, tokenDecimals int32) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.Fields))
	base := item * l.Stride
	for _, f := range l.Fields {
		v := raw[base+f.Offset]
		switch f.Scale {
		case ScaleToken:
			out[f.Name] = FromFixed(v, tokenDecimals)
		case ScaleUSD:
			out[f.Name] = FromFixed(v, USDDecimals)
		case ScaleUSDG:
			out[f.Name] = FromFixed(v, USDGDecimals)
		default:
			out[f.Name] = FromFixed(v, 0)
		}
	}
	return out
}

// VaultTokenInfo decoded vault state of one index token.
type VaultTokenInfo struct {
	Symbol             string
	PoolAmount         decimal.Decimal
	ReservedAmount     decimal.Decimal
	UsdgAmount         decimal.Decimal
	RedemptionAmount   decimal.Decimal
	TokenWeight        decimal.Decimal
	BufferAmount       decimal.Decimal
	MaxUsdgAmount      decimal.Decimal
	GlobalShortSize    decimal.Decimal
	MaxGlobalShortSize decimal.Decimal
	MinPrice           decimal.Decimal
	MaxPrice           decimal.Decimal
	GuaranteedUsd      decimal.Decimal
	// PrimaryPrice oracle price, not maximised.
	PrimaryPrice    decimal.Decimal
	MaxPrimaryPrice decimal.Decimal
}

// DecodeVaultTokenInfo splits a getVaultTokenInfoV2 response into one record per token.
func DecodeVaultTokenInfo(raw []*big.Int, tokens []Token) ([]VaultTokenInfo, error) {
	if err := VaultTokenInfoV2.check(raw, len(tokens)); err != nil {
		return nil, err
	}

	infos := make([]VaultTokenInfo, 0, len(tokens))
	for i, token := range tokens {
		f := VaultTokenInfoV2.decodeRecord(raw, i, token.Decimals)
		infos = append(infos, VaultTokenInfo{
			Symbol:             token.Symbol,
			PoolAmount:         f["poolAmount"],
			ReservedAmount:     f["reservedAmount"],
			UsdgAmount:         f["usdgAmount"],
			RedemptionAmount:   f["redemptionAmount"],
			TokenWeight:        f["tokenWeight"],
			BufferAmount:       f["bufferAmount"],
			MaxUsdgAmount:      f["maxUsdgAmount"],
			GlobalShortSize:    f["globalShortSize"],
			MaxGlobalShortSize: f["maxGlobalShortSize"],
			MinPrice:           f["minPrice"],
			MaxPrice:           f["maxPrice"],
			GuaranteedUsd:      f["guaranteedUsd"],
			PrimaryPrice:       f["primaryPrice"],
			MaxPrimaryPrice:    f["maxPrimaryPrice"],
		})
	}

	return infos, nil
}

// TrackerInfo decoded staking state of one reward tracker.
type TrackerInfo struct {
	Claimable            decimal.Decimal
	TokensPerInterval    decimal.Decimal
	AverageStakedAmounts decimal.Decimal
	CumulativeRewards    decimal.Decimal
	TotalSupply          decimal.Decimal
}

// StakingTrackers number of trackers queried, in order StakedGmx, FeeGmx, FeeGlp, StakedGlp.
const StakingTrackers = 4

// DecodeStakingInfo splits a getStakingInfo response for the four reward trackers and
// folds it into per-token rewards.
func DecodeStakingInfo(raw []*big.Int) (domain.Rewards, error) {
	if err := StakingInfo.check(raw, StakingTrackers); err != nil {
		return domain.Rewards{}, err
	}

	t := make([]TrackerInfo, StakingTrackers)
	for i := range t {
		f := StakingInfo.decodeRecord(raw, i, USDGDecimals)
		t[i] = TrackerInfo{
			Claimable:            f["claimable"],
			TokensPerInterval:    f["tokensPerInterval"],
			AverageStakedAmounts: f["averageStakedAmounts"],
			CumulativeRewards:    f["cumulativeRewards"],
			TotalSupply:          f["totalSupply"],
		}
	}
	stakedGmx, feeGmx, feeGlp, stakedGlp := t[0], t[1], t[2], t[3]

	// fee trackers pay WETH, staked trackers pay esGMX
	return domain.Rewards{
		WETHClaimable:   feeGmx.Claimable.Add(feeGlp.Claimable),
		WETHCumulative:  feeGmx.CumulativeRewards.Add(feeGlp.CumulativeRewards),
		EsGMXClaimable:  stakedGmx.Claimable.Add(stakedGlp.Claimable),
		EsGMXCumulative: stakedGmx.CumulativeRewards.Add(stakedGlp.CumulativeRewards),
	}, nil
}

// FromFixed converts an on-chain fixed-point integer to a decimal.
func FromFixed(v *big.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, -decimals)
}
