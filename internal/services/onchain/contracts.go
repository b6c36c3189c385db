package onchain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// Contracts GMX contract addresses on the protocol chain.
type Contracts struct {
	Vault            common.Address
	Reader           common.Address
	GlpManager       common.Address
	RewardReader     common.Address
	StakedGmxTracker common.Address
	FeeGmxTracker    common.Address
	FeeGlpTracker    common.Address
	StakedGlpTracker common.Address
}

// DefaultContracts returns the Arbitrum One deployment.
func DefaultContracts() Contracts {
	return Contracts{
		Vault:            common.HexToAddress("0x489ee077994B6658eAfA855C308275EAd8097C4A"),
		Reader:           common.HexToAddress("0x22199a49A999c351eF7927602CFB187ec3cae489"),
		GlpManager:       common.HexToAddress("0x321F653eED006AD1C29D174e17d96351BDe22649"),
		RewardReader:     common.HexToAddress("0x8BFb8e82Ee4569aee78D03235ff465Bd436D40E0"),
		StakedGmxTracker: common.HexToAddress("0x908C4D94D34924765f1eDc22A1DD098397c59dD4"),
		FeeGmxTracker:    common.HexToAddress("0xd2D1162512F927a7e282Ef43a362659E4F2a728F"),
		FeeGlpTracker:    common.HexToAddress("0x4e971a87900b931fF39d1Aad67697F49835400b6"),
		StakedGlpTracker: common.HexToAddress("0x1aDDD80E6039594eE970E5872D247bf0414C8903"),
	}
}

// WithOverrides returns a copy with the named contracts replaced. Keys are the field names.
func (c Contracts) WithOverrides(overrides map[string]string) (Contracts, error) {
	fields := map[string]*common.Address{
		"Vault":            &c.Vault,
		"Reader":           &c.Reader,
		"GlpManager":       &c.GlpManager,
		"RewardReader":     &c.RewardReader,
		"StakedGmxTracker": &c.StakedGmxTracker,
		"FeeGmxTracker":    &c.FeeGmxTracker,
		"FeeGlpTracker":    &c.FeeGlpTracker,
		"StakedGlpTracker": &c.StakedGlpTracker,
	}

	for name, hex := range overrides {
		field, ok := fields[name]
		if !ok {
			return c, errors.Errorf("unknown contract %q", name)
		}
		if !common.IsHexAddress(hex) {
			return c, errors.Errorf("invalid address %q for contract %s", hex, name)
		}
		*field = common.HexToAddress(hex)
	}

	return c, nil
}

// stakingTrackers is the tracker order expected by the staking info layout.
func (c Contracts) stakingTrackers() []common.Address {
	return []common.Address{c.StakedGmxTracker, c.FeeGmxTracker, c.FeeGlpTracker, c.StakedGlpTracker}
}

// Token ERC20 token on the protocol chain.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int32
}

// TokenFromAsset converts a registry entry. Native assets have no token contract.
func TokenFromAsset(info domain.AssetInfo) (Token, error) {
	if info.Native {
		return Token{}, errors.Errorf("asset %s is native", info.ID)
	}
	if !common.IsHexAddress(info.Address) {
		return Token{}, errors.Errorf("asset %s has invalid address %q", info.ID, info.Address)
	}
	return Token{Symbol: info.Symbol(), Address: common.HexToAddress(info.Address), Decimals: info.Decimals}, nil
}

// TokensFromAssets converts registry entries in order.
func TokensFromAssets(infos []domain.AssetInfo) ([]Token, error) {
	tokens := make([]Token, 0, len(infos))
	for _, info := range infos {
		token, err := TokenFromAsset(info)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}
