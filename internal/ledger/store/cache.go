package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"factorline/internal/ledger/models"
	id "factorline/pkg/domain"
)

const invoiceKeyPrefix = "invoice:"

// InvoiceStore is the persistence surface the cache decorates.
type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Invoice, error)
	Execute(ctx context.Context, invoiceID id.InvoiceID, validate func(*models.Invoice) error, apply func(*models.Invoice)) (*models.Invoice, error)
}

// CachedInvoiceStore is a read-through cache over an invoice store. Reads are
// served from Redis when possible; every write refreshes the cached copy. Cache
// failures degrade to the inner store and are logged, never surfaced.
type CachedInvoiceStore struct {
	inner  InvoiceStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner InvoiceStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedInvoiceStore {
	return &CachedInvoiceStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	if err := s.inner.Create(ctx, inv); err != nil {
		return err
	}
	s.put(ctx, inv)
	return nil
}

func (s *CachedInvoiceStore) Get(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error) {
	key := invoiceKeyPrefix + invoiceID.String()
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var inv models.Invoice
		if jsonErr := json.Unmarshal(raw, &inv); jsonErr == nil {
			return &inv, nil
		}
		// Unreadable entry, fall through and repopulate.
		s.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "invoice cache read failed", "invoice_id", invoiceID, "error", err)
	}

	inv, err := s.inner.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	s.put(ctx, inv)
	return inv, nil
}

// ListByStatus always hits the inner store; status listings are too volatile
// to cache coherently.
func (s *CachedInvoiceStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Invoice, error) {
	return s.inner.ListByStatus(ctx, status)
}

func (s *CachedInvoiceStore) Execute(
	ctx context.Context,
	invoiceID id.InvoiceID,
	validate func(*models.Invoice) error,
	apply func(*models.Invoice),
) (*models.Invoice, error) {
	inv, err := s.inner.Execute(ctx, invoiceID, validate, apply)
	if err != nil {
		return nil, err
	}
	s.put(ctx, inv)
	return inv, nil
}

func (s *CachedInvoiceStore) put(ctx context.Context, inv *models.Invoice) {
	raw, err := json.Marshal(inv)
	if err != nil {
		s.logger.WarnContext(ctx, "invoice cache encode failed", "invoice_id", inv.ID, "error", err)
		return
	}
	if err := s.client.Set(ctx, invoiceKeyPrefix+inv.ID.String(), raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "invoice cache write failed", "invoice_id", inv.ID, "error", err)
	}
}
