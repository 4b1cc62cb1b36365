package audit

import (
	"context"
	"sync"

	id "factorline/pkg/domain"
)

// InMemoryStore keeps the event trail in memory for tests and dev.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    []Event
	published map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{published: make(map[string]bool)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByInvoice(_ context.Context, invoiceID id.InvoiceID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.InvoiceID == invoiceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) PendingOutbox(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if s.published[e.ID] {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, eventIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range eventIDs {
		s.published[id] = true
	}
	return nil
}
