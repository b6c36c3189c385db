package onchain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// NativeDecimals scale of the chain's gas token.
const NativeDecimals = 18

// ERC20 reads token balances and supplies.
type ERC20 struct {
	caller Caller
}

// NewERC20 creates an ERC20 reader.
func NewERC20(caller Caller) *ERC20 {
	return &ERC20{caller: caller}
}

// BalanceOf returns the balance of account in token units.
func (e *ERC20) BalanceOf(ctx context.Context, token Token, account common.Address) (decimal.Decimal, error) {
	out, err := e.caller.Call(ctx, token.Address, ERC20ABI, "balanceOf", account)
	if err != nil {
		return decimal.Zero, err
	}

	v, err := bigOutput(out, "balanceOf")
	if err != nil {
		return decimal.Zero, err
	}

	return FromFixed(v, token.Decimals), nil
}

// TotalSupply returns the total supply of token in token units.
func (e *ERC20) TotalSupply(ctx context.Context, token Token) (decimal.Decimal, error) {
	out, err := e.caller.Call(ctx, token.Address, ERC20ABI, "totalSupply")
	if err != nil {
		return decimal.Zero, err
	}

	v, err := bigOutput(out, "totalSupply")
	if err != nil {
		return decimal.Zero, err
	}

	return FromFixed(v, token.Decimals), nil
}

// NativeBalance returns the gas token balance of account.
func (e *ERC20) NativeBalance(ctx context.Context, account common.Address) (decimal.Decimal, error) {
	wei, err := e.caller.BalanceAt(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	return FromFixed(wei, NativeDecimals), nil
}
