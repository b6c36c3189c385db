// Package domain defines core data structures used throughout the valuation pipeline.
package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// QuoteSuffixLen is the fixed length of the quote currency at the end of an exchange pair symbol.
const QuoteSuffixLen = 4

// Pair futures trading pair.
type Pair struct {
	// From base currency symbol.
	From string
	// To quote currency symbol.
	To string
}

// ParsePair splits a fixed-suffix pair symbol such as BTCUSDT into base and quote.
func ParsePair(symbol string) (Pair, error) {
	if len(symbol) <= QuoteSuffixLen {
		return Pair{}, errors.Errorf("pair symbol %q is too short for a %d-char quote suffix", symbol, QuoteSuffixLen)
	}

	cut := len(symbol) - QuoteSuffixLen
	return Pair{From: symbol[:cut], To: symbol[cut:]}, nil
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.From, p.To)
}

// Symbol returns the concatenated symbol representation.
func (p Pair) Symbol() string {
	return p.From + p.To
}
