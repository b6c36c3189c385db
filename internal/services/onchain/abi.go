// Package onchain reads GMX protocol and ERC20 state through view calls.
package onchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	readerABIJSON = `[{"inputs":[{"name":"_vault","type":"address"},{"name":"_weth","type":"address"},{"name":"_usdgAmount","type":"uint256"},{"name":"_tokens","type":"address[]"}],"name":"getVaultTokenInfoV2","outputs":[{"name":"","type":"uint256[]"}],"stateMutability":"view","type":"function"}]`

	glpManagerABIJSON = `[{"inputs":[{"name":"maximise","type":"bool"}],"name":"getAum","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

	erc20ABIJSON = `[
{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

	rewardTrackerABIJSON = `[
{"inputs":[{"name":"","type":"address"}],"name":"stakedAmounts","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"","type":"address"},{"name":"","type":"address"}],"name":"depositBalances","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

	rewardReaderABIJSON = `[{"inputs":[{"name":"_account","type":"address"},{"name":"_rewardTrackers","type":"address[]"}],"name":"getStakingInfo","outputs":[{"name":"","type":"uint256[]"}],"stateMutability":"view","type":"function"}]`
)

var (
	ReaderABI        = mustParseABI(readerABIJSON)
	GlpManagerABI    = mustParseABI(glpManagerABIJSON)
	ERC20ABI         = mustParseABI(erc20ABIJSON)
	RewardTrackerABI = mustParseABI(rewardTrackerABIJSON)
	RewardReaderABI  = mustParseABI(rewardReaderABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
