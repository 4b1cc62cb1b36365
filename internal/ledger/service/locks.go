package service

import (
	"sync"

	id "factorline/pkg/domain"
)

// keyedMutex serializes operations per invoice. The zero value is ready to
// use. Entries are never removed.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[id.InvoiceID]*sync.Mutex
}

func (k *keyedMutex) lock(invoiceID id.InvoiceID) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[id.InvoiceID]*sync.Mutex)
	}
	m, ok := k.locks[invoiceID]
	if !ok {
		m = &sync.Mutex{}
		k.locks[invoiceID] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
