// Package report renders snapshot results for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/exposure/internal/domain"
)

const displayPlaces = 2

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Render returns the cycle status followed by the venue totals, the per-venue breakdown and
// the protocol rewards and pool.
func Render(result domain.CycleResult) string {
	var b strings.Builder

	b.WriteString(statusLine(result))
	b.WriteString("\n")

	s := result.Summary
	if s == nil || len(s.Venues()) == 0 {
		return b.String()
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("Snapshot %s at %s", s.ID(), s.CreatedAt().Format("2006-01-02 15:04:05 MST"))))
	b.WriteString("\n")
	b.WriteString(totals(s))
	b.WriteString("\n")

	for _, venue := range s.Venues() {
		b.WriteString(titleStyle.Render(venue.String()))
		b.WriteString("\n")
		b.WriteString(breakdown(s.Breakdown(venue)))
		b.WriteString("\n")
	}

	if d, ok := s.Exchange(); ok {
		b.WriteString(fmt.Sprintf("wallet balance %s, margin ratio %s, unrealized pnl %s\n",
			money(d.WalletBalance), d.MarginRatio.StringFixed(4), money(d.UnrealizedPnL)))
	}
	if d, ok := s.Protocol(); ok {
		if len(d.Rewards) > 0 {
			b.WriteString(titleStyle.Render("Rewards"))
			b.WriteString("\n")
			b.WriteString(rewards(d.Rewards))
			b.WriteString("\n")
		}
		if assets := d.PoolAssets(); len(assets) > 0 {
			b.WriteString(titleStyle.Render("Pool"))
			b.WriteString("\n")
			b.WriteString(pool(assets))
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("open interest: %d long %s, %d short %s\n",
				d.Split.LongCount, money(d.Split.LongNotional), d.Split.ShortCount, money(d.Split.ShortNotional)))
		}
	}

	return b.String()
}

func statusLine(result domain.CycleResult) string {
	line := fmt.Sprintf("status: %s, persisted: %t", result.Status, result.Persisted)
	if reason := result.Reason(); reason != "" {
		line += "\n" + reason
	}

	switch result.Status {
	case domain.CycleSuccess:
		return okStyle.Render(line)
	case domain.CyclePartialFailure:
		return warnStyle.Render(line)
	default:
		return failStyle.Render(line)
	}
}

func totals(s *domain.SnapshotSummary) string {
	rows := make([][]string, 0, len(s.Venues())+1)
	for _, venue := range s.Venues() {
		total, _ := s.Total(venue)
		rows = append(rows, []string{venue.String(), money(total)})
	}
	rows = append(rows, []string{"Total", money(s.PortfolioTotal())})

	return newTable("Venue", "Notional (USD)").Rows(rows...).String()
}

func breakdown(valuations []domain.NotionalValuation) string {
	rows := make([][]string, 0, len(valuations))
	for _, v := range valuations {
		rows = append(rows, []string{v.Symbol, v.Quantity.String(), money(v.USDPrice), money(v.Notional)})
	}
	return newTable("Symbol", "Quantity", "Price", "Notional").Rows(rows...).String()
}

func rewards(valuations []domain.RewardValuation) string {
	rows := make([][]string, 0, len(valuations))
	for _, r := range valuations {
		rows = append(rows, []string{r.Token, r.Claimable.String(), money(r.ClaimableNotional), money(r.CumulativeNotional)})
	}
	return newTable("Token", "Claimable", "Claimable (USD)", "Cumulative (USD)").Rows(rows...).String()
}

func pool(assets []domain.PoolAsset) string {
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, []string{
			a.Symbol, a.ExposureAmount.String(), money(a.ExposureNotional),
			a.Weight.StringFixed(4), money(a.LongInterest), money(a.ShortInterest),
		})
	}
	return newTable("Asset", "Exposure", "Exposure (USD)", "Weight", "Long OI", "Short OI").Rows(rows...).String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func money(d decimal.Decimal) string {
	return d.StringFixed(displayPlaces)
}
