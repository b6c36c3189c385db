package domain

import "github.com/pkg/errors"

var (
	// ErrSourceUnavailable one price or position source failed for this cycle.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnexpectedAssetHeld the exchange account holds a non-stable asset as raw wallet balance.
	ErrUnexpectedAssetHeld = errors.New("unexpected asset held")
	// ErrDivideByZero a ratio was requested over a zero denominator.
	ErrDivideByZero = errors.New("divide by zero")
	// ErrIncompleteQuoteSet an asset has no usable price source and no zero-value rule.
	ErrIncompleteQuoteSet = errors.New("incomplete quote set")
	// ErrLayoutMismatch an on-chain multi-field response does not match the expected stride.
	ErrLayoutMismatch = errors.New("contract response layout mismatch")
	// ErrNoVenueValued every venue failed in a cycle.
	ErrNoVenueValued = errors.New("no venue valued")
)
