package domain

import "strings"

// CycleStatus outcome of one snapshot cycle.
type CycleStatus int

const (
	CycleSuccess CycleStatus = iota
	// CyclePartialFailure at least one venue or source failed, at least one venue was valued.
	CyclePartialFailure
	// CycleFailure no venue was valued or the snapshot could not be persisted.
	CycleFailure
)

// String returns the string representation.
func (s CycleStatus) String() string {
	switch s {
	case CycleSuccess:
		return "success"
	case CyclePartialFailure:
		return "partial_failure"
	case CycleFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// SourceFailure price source that was unavailable for the cycle.
type SourceFailure struct {
	Source PriceSource
	Err    error
}

// CycleResult typed outcome of one snapshot cycle.
type CycleResult struct {
	Status       CycleStatus
	Summary      *SnapshotSummary
	VenueErrors  map[Venue]error
	SourceErrors []SourceFailure
	// Persisted is true when the summary was written to the sinks.
	Persisted bool
	Err       error
}

// Reason returns a short description of what failed.
func (r CycleResult) Reason() string {
	var parts []string
	if r.Err != nil {
		parts = append(parts, r.Err.Error())
	}
	for _, venue := range Venues {
		if err, ok := r.VenueErrors[venue]; ok {
			parts = append(parts, venue.String()+": "+err.Error())
		}
	}
	for _, f := range r.SourceErrors {
		parts = append(parts, f.Err.Error())
	}
	return strings.Join(parts, "; ")
}
