package domain

// Venue identifies where a part of the portfolio is held.
type Venue string

const (
	// VenueExchange centralized derivatives exchange account.
	VenueExchange Venue = "Binance"
	// VenueProtocol on-chain liquidity-pool protocol.
	VenueProtocol Venue = "GMX"
	// VenueWallet self-custodied wallet.
	VenueWallet Venue = "Metamask"
)

// Venues is the processing and persistence order of venues.
var Venues = []Venue{VenueExchange, VenueProtocol, VenueWallet}

// String returns the string representation.
func (v Venue) String() string {
	return string(v)
}

// IsValid checks if the Venue value is valid.
func (v Venue) IsValid() bool {
	return v == VenueExchange || v == VenueProtocol || v == VenueWallet
}
