package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VenueValuation valued positions of one venue.
type VenueValuation struct {
	Venue     Venue
	Positions []NotionalValuation
	Total     decimal.Decimal
}

// NewVenueValuation sums positions into the venue total.
func NewVenueValuation(venue Venue, positions []NotionalValuation) VenueValuation {
	return VenueValuation{Venue: venue, Positions: positions, Total: SumNotional(positions)}
}

// SnapshotSummary point-in-time valuation of the portfolio. It is never mutated after
// construction and every accessor returns a copy.
type SnapshotSummary struct {
	id        string
	createdAt time.Time
	venues    []Venue
	totals    map[Venue]decimal.Decimal
	breakdown map[Venue][]NotionalValuation
	exchange  *ExchangeDetail
	protocol  *ProtocolDetail
}

// NewSnapshotSummary creates a summary over the venues that were valued. Venues are
// kept in Venues order; exchange and protocol details are optional.
func NewSnapshotSummary(
	id string,
	createdAt time.Time,
	valuations []VenueValuation,
	exchange *ExchangeDetail,
	protocol *ProtocolDetail,
) *SnapshotSummary {
	byVenue := make(map[Venue]VenueValuation, len(valuations))
	for _, v := range valuations {
		byVenue[v.Venue] = v
	}

	s := &SnapshotSummary{
		id:        id,
		createdAt: createdAt,
		totals:    make(map[Venue]decimal.Decimal, len(valuations)),
		breakdown: make(map[Venue][]NotionalValuation, len(valuations)),
	}
	for _, venue := range Venues {
		v, ok := byVenue[venue]
		if !ok {
			continue
		}
		s.venues = append(s.venues, venue)
		s.totals[venue] = v.Total
		s.breakdown[venue] = append([]NotionalValuation(nil), v.Positions...)
	}

	if _, ok := byVenue[VenueExchange]; ok && exchange != nil {
		d := copyExchangeDetail(*exchange)
		s.exchange = &d
	}
	if _, ok := byVenue[VenueProtocol]; ok && protocol != nil {
		d := copyProtocolDetail(*protocol)
		s.protocol = &d
	}

	return s
}

// ID returns the snapshot identifier.
func (s *SnapshotSummary) ID() string {
	return s.id
}

// CreatedAt returns the snapshot time.
func (s *SnapshotSummary) CreatedAt() time.Time {
	return s.createdAt
}

// Venues returns the valued venues in Venues order.
func (s *SnapshotSummary) Venues() []Venue {
	return append([]Venue(nil), s.venues...)
}

// Has reports whether venue was valued.
func (s *SnapshotSummary) Has(venue Venue) bool {
	_, ok := s.totals[venue]
	return ok
}

// Total returns the notional total of venue.
func (s *SnapshotSummary) Total(venue Venue) (decimal.Decimal, bool) {
	t, ok := s.totals[venue]
	return t, ok
}

// Totals returns the notional total per valued venue.
func (s *SnapshotSummary) Totals() map[Venue]decimal.Decimal {
	out := make(map[Venue]decimal.Decimal, len(s.totals))
	for venue, total := range s.totals {
		out[venue] = total
	}
	return out
}

// PortfolioTotal returns the sum of every venue total.
func (s *SnapshotSummary) PortfolioTotal() decimal.Decimal {
	total := decimal.Zero
	for _, venue := range s.venues {
		total = total.Add(s.totals[venue])
	}
	return total
}

// Breakdown returns the valued positions of venue.
func (s *SnapshotSummary) Breakdown(venue Venue) []NotionalValuation {
	return append([]NotionalValuation(nil), s.breakdown[venue]...)
}

// Valuation returns the valued position of symbol on venue.
func (s *SnapshotSummary) Valuation(venue Venue, symbol string) (NotionalValuation, bool) {
	for _, v := range s.breakdown[venue] {
		if v.Symbol == symbol {
			return v, true
		}
	}
	return NotionalValuation{}, false
}

// Exchange returns the exchange venue detail.
func (s *SnapshotSummary) Exchange() (ExchangeDetail, bool) {
	if s.exchange == nil {
		return ExchangeDetail{}, false
	}
	return copyExchangeDetail(*s.exchange), true
}

// Protocol returns the protocol venue detail.
func (s *SnapshotSummary) Protocol() (ProtocolDetail, bool) {
	if s.protocol == nil {
		return ProtocolDetail{}, false
	}
	return copyProtocolDetail(*s.protocol), true
}

func copyExchangeDetail(d ExchangeDetail) ExchangeDetail {
	d.Hedges = append([]HedgeValuation(nil), d.Hedges...)
	return d
}

func copyProtocolDetail(d ProtocolDetail) ProtocolDetail {
	d.Exposure = append([]NotionalValuation(nil), d.Exposure...)
	d.Rewards = append([]RewardValuation(nil), d.Rewards...)
	d.Weights = append([]PoolWeight(nil), d.Weights...)
	d.OpenInterest = append([]OpenInterest(nil), d.OpenInterest...)
	return d
}

// SummaryView JSON form of a summary for the dashboard.
type SummaryView struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	Total        string            `json:"total"`
	Venues       map[string]string `json:"venues"`
	OpenInterest *SplitView        `json:"open_interest,omitempty"`
}

// SplitView JSON form of the pool's long/short split.
type SplitView struct {
	LongCount  int    `json:"long_count"`
	ShortCount int    `json:"short_count"`
	Long       string `json:"long"`
	Short      string `json:"short"`
}

// View returns the JSON form of the summary.
func (s *SnapshotSummary) View() SummaryView {
	venues := make(map[string]string, len(s.venues))
	for _, venue := range s.venues {
		venues[venue.String()] = s.totals[venue].String()
	}
	view := SummaryView{
		ID:        s.id,
		CreatedAt: s.createdAt,
		Total:     s.PortfolioTotal().String(),
		Venues:    venues,
	}
	if s.protocol != nil {
		split := s.protocol.Split
		view.OpenInterest = &SplitView{
			LongCount:  split.LongCount,
			ShortCount: split.ShortCount,
			Long:       split.LongNotional.String(),
			Short:      split.ShortNotional.String(),
		}
	}
	return view
}
