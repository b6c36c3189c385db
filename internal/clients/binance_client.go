package clients

import (
	"context"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

// FuturesPosition one position entry as reported by the futures venue.
type FuturesPosition struct {
	Symbol           string
	PositionAmount   decimal.Decimal
	Notional         decimal.Decimal
	UnrealizedProfit decimal.Decimal
	Leverage         decimal.Decimal
}

// BinanceFutures USDⓈ-M futures account access.
type BinanceFutures struct {
	client *futures.Client
}

// NewBinanceFutures creates a futures client authenticated with the given key pair.
func NewBinanceFutures(apiKey, apiSecret string) *BinanceFutures {
	return &BinanceFutures{client: binance.NewFuturesClient(apiKey, apiSecret)}
}

// FetchBalance returns the raw wallet balance of every account asset.
func (b *BinanceFutures) FetchBalance(ctx context.Context) ([]domain.ExchangeBalance, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get futures account")
	}

	balances := make([]domain.ExchangeBalance, 0, len(account.Assets))
	for _, asset := range account.Assets {
		wallet, err := parseDecimal(asset.WalletBalance)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid wallet balance of %s", asset.Asset)
		}
		margin, err := parseDecimal(asset.MarginBalance)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid margin balance of %s", asset.Asset)
		}
		maint, err := parseDecimal(asset.MaintMargin)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid maintenance margin of %s", asset.Asset)
		}

		balances = append(balances, domain.ExchangeBalance{
			Asset:         asset.Asset,
			WalletBalance: wallet,
			MarginBalance: margin,
			MaintMargin:   maint,
		})
	}

	return balances, nil
}

// FetchPositions returns every position entry of the account, including empty ones.
func (b *BinanceFutures) FetchPositions(ctx context.Context) ([]FuturesPosition, error) {
	risks, err := b.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position risk")
	}

	positions := make([]FuturesPosition, 0, len(risks))
	for _, r := range risks {
		p := FuturesPosition{Symbol: r.Symbol}
		if p.PositionAmount, err = parseDecimal(r.PositionAmt); err != nil {
			return nil, errors.Wrapf(err, "invalid position amount of %s", r.Symbol)
		}
		if p.Notional, err = parseDecimal(r.Notional); err != nil {
			return nil, errors.Wrapf(err, "invalid notional of %s", r.Symbol)
		}
		if p.UnrealizedProfit, err = parseDecimal(r.UnRealizedProfit); err != nil {
			return nil, errors.Wrapf(err, "invalid unrealized profit of %s", r.Symbol)
		}
		if p.Leverage, err = parseDecimal(r.Leverage); err != nil {
			return nil, errors.Wrapf(err, "invalid leverage of %s", r.Symbol)
		}
		positions = append(positions, p)
	}

	return positions, nil
}

// FetchFundingRate returns the last funding rate of pair.
func (b *BinanceFutures) FetchFundingRate(ctx context.Context, pair domain.Pair) (decimal.Decimal, error) {
	indexes, err := b.client.NewPremiumIndexService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to get premium index for %s", pair.Symbol())
	}

	for _, idx := range indexes {
		if idx.Symbol == pair.Symbol() {
			return parseDecimal(idx.LastFundingRate)
		}
	}

	return decimal.Zero, errors.Errorf("no premium index for %s", pair.Symbol())
}

// BinanceSpot public spot market data.
type BinanceSpot struct {
	client *binance.Client
	quote  string
}

// NewBinanceSpot creates an unauthenticated spot client quoting prices in quote.
func NewBinanceSpot(quote string) *BinanceSpot {
	return &BinanceSpot{client: binance.NewClient("", ""), quote: quote}
}

// Quote returns the account unit prices are quoted in.
func (b *BinanceSpot) Quote() string {
	return b.quote
}

// LastPrice returns the last traded price of base against the quote currency.
func (b *BinanceSpot) LastPrice(ctx context.Context, base string) (decimal.Decimal, error) {
	symbol := strings.ToUpper(base) + b.quote

	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to get price for %s", symbol)
	}

	for _, p := range prices {
		if p.Symbol == symbol {
			return parseDecimal(p.Price)
		}
	}

	return decimal.Zero, errors.Errorf("no price for %s", symbol)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
