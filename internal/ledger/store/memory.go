// Package store persists invoice records.
//
// Error contract: all stores return sentinel errors for infrastructure facts
// (ErrNotFound, ErrConflict) and pass domain errors from Execute validators
// through unchanged. Services translate sentinels into coded domain errors.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"factorline/internal/ledger/models"
	id "factorline/pkg/domain"
	"factorline/pkg/platform/sentinel"
)

// InMemoryInvoiceStore keeps invoices in memory for tests and dev.
type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[id.InvoiceID]*models.Invoice
}

func NewInMemory() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{invoices: make(map[id.InvoiceID]*models.Invoice)}
}

// Create inserts a new invoice, enforcing id uniqueness.
func (s *InMemoryInvoiceStore) Create(_ context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invoices[inv.ID]; exists {
		return fmt.Errorf("invoice %s: %w", inv.ID, sentinel.ErrConflict)
	}
	s.invoices[inv.ID] = inv.Clone()
	return nil
}

func (s *InMemoryInvoiceStore) Get(_ context.Context, invoiceID id.InvoiceID) (*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, sentinel.ErrNotFound)
	}
	return inv.Clone(), nil
}

func (s *InMemoryInvoiceStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Invoice
	for _, inv := range s.invoices {
		if inv.Status == status {
			out = append(out, inv.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Execute runs validate then apply while holding the write lock, so the
// check-and-mutate sequence for one invoice is atomic. Returns a copy of the
// updated record.
func (s *InMemoryInvoiceStore) Execute(
	_ context.Context,
	invoiceID id.InvoiceID,
	validate func(*models.Invoice) error,
	apply func(*models.Invoice),
) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, sentinel.ErrNotFound)
	}
	if validate != nil {
		if err := validate(inv); err != nil {
			return nil, err
		}
	}
	apply(inv)
	return inv.Clone(), nil
}
