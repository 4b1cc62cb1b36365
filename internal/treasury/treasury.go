// Package treasury moves settlement-asset balances between parties.
//
// It implements the value-transfer port consumed by the ledger service. Every
// transfer is all-or-nothing: a failed transfer leaves both balances exactly
// as they were, and the caller aborts its operation without retrying.
//
// Accounts are bound strictly by (settlement asset, the party's own
// identity). The pool account belongs to no party; payouts from it are
// authorized by the treasury's own delegated capability rather than an
// end-user signer.
package treasury

import (
	"context"
	"fmt"
	"sync"

	id "factorline/pkg/domain"
	"factorline/pkg/platform/sentinel"
)

// InMemoryTreasury keeps settlement balances in memory for tests and dev.
// In production this port fronts an external custody system; the ledger never
// implements money movement itself.
type InMemoryTreasury struct {
	mu       sync.Mutex
	asset    id.AssetID
	balances map[id.PartyID]uint64
	pool     uint64
}

func NewInMemory(asset id.AssetID) *InMemoryTreasury {
	return &InMemoryTreasury{
		asset:    asset,
		balances: make(map[id.PartyID]uint64),
	}
}

// Asset returns the settlement asset this treasury custodies.
func (t *InMemoryTreasury) Asset() id.AssetID { return t.asset }

// Deposit credits a party's account. Dev/test seeding only.
func (t *InMemoryTreasury) Deposit(_ context.Context, party id.PartyID, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[party] += amount
}

// Balance returns a party's available settlement balance.
func (t *InMemoryTreasury) Balance(_ context.Context, party id.PartyID) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[party], nil
}

// PoolBalance returns the settlement balance held by the pool account.
func (t *InMemoryTreasury) PoolBalance(_ context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pool, nil
}

// Transfer moves amount from one party to another, authorized by the sender.
func (t *InMemoryTreasury) Transfer(_ context.Context, from, to id.PartyID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balances[from] < amount {
		return fmt.Errorf("party %s holds %d, needs %d: %w", from, t.balances[from], amount, sentinel.ErrInsufficient)
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}

// TransferToPool moves a premium from a party into the pool account.
func (t *InMemoryTreasury) TransferToPool(_ context.Context, from id.PartyID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balances[from] < amount {
		return fmt.Errorf("party %s holds %d, needs %d: %w", from, t.balances[from], amount, sentinel.ErrInsufficient)
	}
	t.balances[from] -= amount
	t.pool += amount
	return nil
}

// TransferFromPool pays out of the pool account under the treasury's own
// authority; no individual party signs this movement.
func (t *InMemoryTreasury) TransferFromPool(_ context.Context, to id.PartyID, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pool < amount {
		return fmt.Errorf("pool account holds %d, needs %d: %w", t.pool, amount, sentinel.ErrInsufficient)
	}
	t.pool -= amount
	t.balances[to] += amount
	return nil
}
