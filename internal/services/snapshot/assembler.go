// Package snapshot turns a valuation summary into persistence records.
package snapshot

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

const (
	TableSummary  = "summary_total_balance"
	TableHedge    = "binance_hedge_account"
	TableProtocol = "gmx_account"
	TableWallet   = "metamask_account"
	TableRewards  = "gmx_rewards"
	TablePool     = "gmx_pool"
)

var (
	SummaryColumns  = []string{"created_date", "updated_date", "exchange_name", "notional", "wallet_balance", "margin_ratio"}
	HedgeColumns    = []string{"created_date", "updated_date", "position_amount", "notional", "funding_rate", "quote", "base", "unrealized_profit"}
	ProtocolColumns = []string{"created_date", "updated_date", "position_amount", "notional", "symbol", "claimable", "cumulative"}
	WalletColumns   = []string{"created_date", "updated_date", "amount", "notional", "symbol"}
	RewardsColumns  = []string{"created_date", "updated_date", "reward_token", "claimable", "cumulative", "claimable_notional", "cumulative_notional"}
	PoolColumns     = []string{
		"created_date", "updated_date", "symbol", "exposure_amount", "exposure_notional",
		"pool_notional", "pool_weight", "long_open_interest", "short_open_interest",
	}
)

// Tables lists every table in write order.
var Tables = []string{TableSummary, TableHedge, TableProtocol, TableWallet, TableRewards, TablePool}

// Columns returns the column order of table.
func Columns(table string) ([]string, bool) {
	switch table {
	case TableSummary:
		return SummaryColumns, true
	case TableHedge:
		return HedgeColumns, true
	case TableProtocol:
		return ProtocolColumns, true
	case TableWallet:
		return WalletColumns, true
	case TableRewards:
		return RewardsColumns, true
	case TablePool:
		return PoolColumns, true
	default:
		return nil, false
	}
}

// Batch rows of one table. Each row holds one value per column, in column order.
type Batch struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Assemble builds the records of summary. Venues missing from the summary contribute no
// rows; batches without rows are omitted.
func Assemble(summary *domain.SnapshotSummary) []Batch {
	ts := summary.CreatedAt()

	batches := []Batch{
		{Table: TableSummary, Columns: SummaryColumns},
		{Table: TableHedge, Columns: HedgeColumns},
		{Table: TableProtocol, Columns: ProtocolColumns},
		{Table: TableWallet, Columns: WalletColumns},
		{Table: TableRewards, Columns: RewardsColumns},
		{Table: TablePool, Columns: PoolColumns},
	}
	summaryRows, hedgeRows, protocolRows, walletRows, rewardRows := &batches[0], &batches[1], &batches[2], &batches[3], &batches[4]
	poolRows := &batches[5]

	exchange, hasExchange := summary.Exchange()

	for _, venue := range summary.Venues() {
		total, _ := summary.Total(venue)
		walletBalance, marginRatio := decimal.Zero, decimal.Zero
		if venue == domain.VenueExchange && hasExchange {
			walletBalance, marginRatio = exchange.WalletBalance, exchange.MarginRatio
		}
		summaryRows.Rows = append(summaryRows.Rows, []any{ts, ts, venue.String(), total, walletBalance, marginRatio})
	}

	if hasExchange {
		for _, h := range exchange.Hedges {
			hedgeRows.Rows = append(hedgeRows.Rows, []any{
				ts, ts, h.Hedge.PositionAmount, h.Notional, h.Hedge.FundingRate,
				h.Hedge.Quote(), h.Hedge.Base(), h.Hedge.UnrealizedProfit,
			})
		}
	}

	if protocol, ok := summary.Protocol(); ok {
		rewards := make(map[string]domain.RewardValuation, len(protocol.Rewards))
		for _, r := range protocol.Rewards {
			rewards[r.Token] = r
			rewardRows.Rows = append(rewardRows.Rows, []any{
				ts, ts, r.Token, r.Claimable, r.Cumulative, r.ClaimableNotional, r.CumulativeNotional,
			})
		}

		// gmx_account holds only what the GMX venue total is made of. Look-through exposure
		// is already inside the GLP notional and goes to gmx_pool.
		for _, v := range summary.Breakdown(domain.VenueProtocol) {
			claimable, cumulative := decimal.Zero, decimal.Zero
			if r, ok := rewards[v.Symbol]; ok {
				claimable, cumulative = r.Claimable, r.Cumulative
			}
			protocolRows.Rows = append(protocolRows.Rows, []any{
				ts, ts, v.Quantity, v.Notional, v.Symbol, claimable, cumulative,
			})
		}

		for _, a := range protocol.PoolAssets() {
			poolRows.Rows = append(poolRows.Rows, []any{
				ts, ts, a.Symbol, a.ExposureAmount, a.ExposureNotional, a.PoolNotional, a.Weight, a.LongInterest, a.ShortInterest,
			})
		}
	}

	for _, v := range summary.Breakdown(domain.VenueWallet) {
		walletRows.Rows = append(walletRows.Rows, []any{ts, ts, v.Quantity, v.Notional, v.Symbol})
	}

	out := make([]Batch, 0, len(batches))
	for _, b := range batches {
		if len(b.Rows) > 0 {
			out = append(out, b)
		}
	}
	return out
}

