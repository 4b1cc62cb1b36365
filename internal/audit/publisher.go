package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	id "factorline/pkg/domain"
	"factorline/pkg/requestcontext"
)

// Store persists audit events. Implementations are append-only; events are
// never updated or deleted. PendingOutbox/MarkPublished support the Kafka
// outbox worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByInvoice(ctx context.Context, invoiceID id.InvoiceID) ([]Event, error)
	PendingOutbox(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, eventIDs []string) error
}

// Publisher emits audit events with fail-closed semantics: if an event cannot
// be persisted, the emitting operation must fail. The write is synchronous;
// delivery to Kafka happens asynchronously from the outbox.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit stamps identity, timestamp, request metadata, and the content
// fingerprint onto the event, then persists it.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	event.ID = uuid.NewString()
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ClientIP = requestcontext.ClientIP(ctx)
	event.UserAgent = requestcontext.UserAgent(ctx)
	event.Fingerprint = event.ComputeFingerprint()

	if err := p.store.Append(ctx, event); err != nil {
		return fmt.Errorf("audit persistence failed: %w", err)
	}
	return nil
}

// List returns the event history of one invoice in append order.
func (p *Publisher) List(ctx context.Context, invoiceID id.InvoiceID) ([]Event, error) {
	return p.store.ListByInvoice(ctx, invoiceID)
}
