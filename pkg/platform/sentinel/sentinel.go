package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, the treasury, and other
// infrastructure layers return these (optionally wrapped) so services can
// translate them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrConflict: a record with the same key already exists
// - ErrInvalidState: record in wrong lifecycle state for the requested operation
// - ErrInsufficient: a balance cannot cover the requested movement
// - ErrUnavailable: backing service temporarily unreachable
//
// For validation errors (bad input, out-of-range values), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrInsufficient = errors.New("insufficient balance")
	ErrUnavailable  = errors.New("unavailable")
)
