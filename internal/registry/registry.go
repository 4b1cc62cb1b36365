// Package registry owns the process-wide marketplace state: monotonic
// counters and bootstrap configuration.
//
// The record is created once at bootstrap and mutated by every ledger
// operation that moves money. Updates go through Execute so check-and-mutate
// is atomic under a single-writer discipline; the state is never reachable as
// an ambient global.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	id "factorline/pkg/domain"
	"factorline/pkg/platform/sentinel"
)

// State is the singleton global registry record.
//
// Invariants:
//   - TotalInvoices and TotalFunded are non-decreasing.
//   - InsurancePoolBalance mirrors the insurance pool aggregate: the sum of
//     ledger-tracked premiums minus payouts.
type State struct {
	TotalInvoices        uint64
	TotalFunded          uint64
	InsurancePoolBalance uint64
	Authority            id.PartyID
	SettlementAsset      id.AssetID
	CreatedAt            time.Time
}

// InMemoryStore holds the registry state in memory for tests and dev.
type InMemoryStore struct {
	mu    sync.RWMutex
	state *State
}

func NewInMemoryStore() *InMemoryStore { return &InMemoryStore{} }

// Create bootstraps the singleton. Returns ErrConflict if already bootstrapped.
func (s *InMemoryStore) Create(_ context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		return fmt.Errorf("registry already initialized: %w", sentinel.ErrConflict)
	}
	cp := *state
	s.state = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, fmt.Errorf("registry not initialized: %w", sentinel.ErrNotFound)
	}
	cp := *s.state
	return &cp, nil
}

// Execute runs validate then apply while holding the write lock, so no other
// operation observes intermediate state. Returns a copy of the updated state.
func (s *InMemoryStore) Execute(_ context.Context, validate func(*State) error, apply func(*State)) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, fmt.Errorf("registry not initialized: %w", sentinel.ErrNotFound)
	}
	if validate != nil {
		if err := validate(s.state); err != nil {
			return nil, err
		}
	}
	apply(s.state)
	cp := *s.state
	return &cp, nil
}
