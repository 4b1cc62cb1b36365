package models

import dErrors "factorline/pkg/domain-errors"

// Status is the lifecycle state of an invoice.
//
// Legal transitions:
//
//	PendingFunding -> Funded
//	Funded         -> Repaid
//	Funded         -> Defaulted
//
// Repaid and Defaulted are terminal; records in those states are retained as
// immutable audit history and accept no further transitions.
type Status string

const (
	StatusPendingFunding Status = "pending_funding"
	StatusFunded         Status = "funded"
	StatusRepaid         Status = "repaid"
	StatusDefaulted      Status = "defaulted"
)

// legalTransitions is the single source of truth for the state machine.
var legalTransitions = map[Status]map[Status]bool{
	StatusPendingFunding: {StatusFunded: true},
	StatusFunded:         {StatusRepaid: true, StatusDefaulted: true},
	StatusRepaid:         {},
	StatusDefaulted:      {},
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	return legalTransitions[s][next]
}

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	return len(legalTransitions[s]) == 0
}

func (s Status) IsValid() bool {
	_, ok := legalTransitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

// ParseStatus constructs a Status from external input (query filters, rows).
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown invoice status %q", v)
	}
	return s, nil
}
