package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorline/internal/ledger/models"
	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
	"factorline/pkg/platform/sentinel"
)

var storeNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func storeTestInvoice(t *testing.T, invoiceID id.InvoiceID) *models.Invoice {
	t.Helper()
	owner := id.PartyID(uuid.MustParse("11111111-1111-4111-8111-111111111111"))
	inv, err := models.NewInvoice(invoiceID, owner, 1_000_000, storeNow.Add(30*24*time.Hour),
		"Acme Industrial Supplies", models.RiskProfile{Score: 25, IndustryRisk: 5, CreditScore: 700}, storeNow)
	require.NoError(t, err)
	return inv
}

func TestMemoryCreateAndGet(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	inv := storeTestInvoice(t, 1)

	require.NoError(t, s.Create(ctx, inv))

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, inv, got)

	// The store hands out copies, not its internal record.
	got.Status = models.StatusRepaid
	again, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingFunding, again.Status)
}

func TestMemoryCreateDuplicate(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, storeTestInvoice(t, 1)))
	err := s.Create(ctx, storeTestInvoice(t, 1))
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestMemoryGetMissing(t *testing.T) {
	s := NewInMemory()
	_, err := s.Get(context.Background(), 404)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryListByStatusSortsByID(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	for _, invoiceID := range []id.InvoiceID{3, 1, 2} {
		require.NoError(t, s.Create(ctx, storeTestInvoice(t, invoiceID)))
	}

	pending, err := s.ListByStatus(ctx, models.StatusPendingFunding)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, id.InvoiceID(1), pending[0].ID)
	assert.Equal(t, id.InvoiceID(2), pending[1].ID)
	assert.Equal(t, id.InvoiceID(3), pending[2].ID)

	funded, err := s.ListByStatus(ctx, models.StatusFunded)
	require.NoError(t, err)
	assert.Empty(t, funded)
}

func TestMemoryExecuteAppliesUnderValidation(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	inv := storeTestInvoice(t, 1)
	require.NoError(t, s.Create(ctx, inv))

	investor := id.PartyID(uuid.MustParse("22222222-2222-4222-8222-222222222222"))
	updated, err := s.Execute(ctx, 1,
		func(i *models.Invoice) error { return i.CanFund(i.Amount) },
		func(i *models.Invoice) { i.ApplyFunding(investor, 1_050_000, storeNow) },
	)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFunded, updated.Status)
	assert.Equal(t, investor, updated.Investor)

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFunded, got.Status)
}

func TestMemoryExecuteValidationFailureLeavesStateUntouched(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, storeTestInvoice(t, 1)))

	_, err := s.Execute(ctx, 1,
		func(i *models.Invoice) error { return dErrors.New(dErrors.CodeConflict, "rejected") },
		func(i *models.Invoice) { i.Status = models.StatusDefaulted },
	)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingFunding, got.Status)
}

func TestMemoryExecuteMissing(t *testing.T) {
	s := NewInMemory()
	_, err := s.Execute(context.Background(), 404, nil, func(i *models.Invoice) {})
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
