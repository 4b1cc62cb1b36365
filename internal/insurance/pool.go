// Package insurance tracks the shared insurance pool aggregate.
//
// The pool is a single balance fed by funding premiums and drained by
// approved claims. Only ledger operations read or write it; external parties
// never touch it directly. The balance can never go negative: a claim that
// would underflow it is rejected before any transfer is attempted.
package insurance

import (
	"context"
	"fmt"
	"sync"

	"factorline/pkg/platform/sentinel"
)

// Pool is the aggregate balance of the insurance pool.
// Implementations must serialize Credit/Debit with respect to each other so
// concurrent funding of different invoices never loses an increment.
type Pool interface {
	Balance(ctx context.Context) (uint64, error)
	// Credit adds a funding premium to the pool.
	Credit(ctx context.Context, amount uint64) (uint64, error)
	// Debit removes an approved claim payout. Returns ErrInsufficient,
	// leaving the balance untouched, when the pool cannot cover it.
	Debit(ctx context.Context, amount uint64) (uint64, error)
}

// InMemoryPool keeps the pool balance in memory for tests and dev.
type InMemoryPool struct {
	mu      sync.Mutex
	balance uint64
}

func NewInMemoryPool() *InMemoryPool { return &InMemoryPool{} }

func (p *InMemoryPool) Balance(_ context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance, nil
}

func (p *InMemoryPool) Credit(_ context.Context, amount uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance += amount
	return p.balance, nil
}

func (p *InMemoryPool) Debit(_ context.Context, amount uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balance < amount {
		return p.balance, fmt.Errorf("pool balance %d cannot cover %d: %w", p.balance, amount, sentinel.ErrInsufficient)
	}
	p.balance -= amount
	return p.balance, nil
}
