//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"factorline/internal/ledger/models"
	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
	"factorline/pkg/platform/sentinel"
	"factorline/pkg/testutil/containers"
)

type PostgresInvoiceStoreSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *PostgresInvoiceStore
	now   time.Time
}

func TestPostgresInvoiceStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresInvoiceStoreSuite))
}

func (s *PostgresInvoiceStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
	s.now = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func (s *PostgresInvoiceStoreSuite) TearDownSuite() {
	s.pg.Pool.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresInvoiceStoreSuite) SetupTest() {
	_, err := s.pg.Pool.Exec(context.Background(), `TRUNCATE invoices`)
	s.Require().NoError(err)
}

func (s *PostgresInvoiceStoreSuite) newInvoice(invoiceID id.InvoiceID) *models.Invoice {
	owner := id.PartyID(uuid.MustParse("11111111-1111-4111-8111-111111111111"))
	inv, err := models.NewInvoice(invoiceID, owner, 1_000_000, s.now.Add(30*24*time.Hour),
		"Acme Industrial Supplies", models.RiskProfile{Score: 25, IndustryRisk: 5, CreditScore: 700}, s.now)
	s.Require().NoError(err)
	return inv
}

func (s *PostgresInvoiceStoreSuite) TestCreateAndGetRoundTrip() {
	ctx := context.Background()
	inv := s.newInvoice(1)
	s.Require().NoError(s.store.Create(ctx, inv))

	got, err := s.store.Get(ctx, 1)
	s.Require().NoError(err)

	s.Equal(inv.ID, got.ID)
	s.Equal(inv.BusinessOwner, got.BusinessOwner)
	s.Equal(inv.Amount, got.Amount)
	s.Equal(inv.DebtorInfo, got.DebtorInfo)
	s.Equal(inv.Status, got.Status)
	s.Equal(inv.RiskScore, got.RiskScore)
	s.Equal(inv.InsurancePremium, got.InsurancePremium)
	s.Equal(inv.PaymentTermsDays, got.PaymentTermsDays)
	s.True(got.DueDate.Equal(inv.DueDate))
	s.True(got.CreatedAt.Equal(inv.CreatedAt))
	s.Nil(got.FundingDate)
	s.Nil(got.ExpectedReturn)
	s.True(got.Investor.IsNil())
}

func (s *PostgresInvoiceStoreSuite) TestCreateDuplicateReturnsConflict() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newInvoice(1)))
	err := s.store.Create(ctx, s.newInvoice(1))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresInvoiceStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), 404)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresInvoiceStoreSuite) TestListByStatusOrdersByID() {
	ctx := context.Background()
	for _, invoiceID := range []id.InvoiceID{3, 1, 2} {
		s.Require().NoError(s.store.Create(ctx, s.newInvoice(invoiceID)))
	}

	out, err := s.store.ListByStatus(ctx, models.StatusPendingFunding)
	s.Require().NoError(err)
	s.Require().Len(out, 3)
	s.Equal(id.InvoiceID(1), out[0].ID)
	s.Equal(id.InvoiceID(2), out[1].ID)
	s.Equal(id.InvoiceID(3), out[2].ID)

	funded, err := s.store.ListByStatus(ctx, models.StatusFunded)
	s.Require().NoError(err)
	s.Empty(funded)
}

func (s *PostgresInvoiceStoreSuite) TestExecutePersistsTransition() {
	ctx := context.Background()
	inv := s.newInvoice(1)
	s.Require().NoError(s.store.Create(ctx, inv))

	investor := id.PartyID(uuid.MustParse("22222222-2222-4222-8222-222222222222"))
	updated, err := s.store.Execute(ctx, 1,
		func(i *models.Invoice) error { return i.CanFund(i.Amount) },
		func(i *models.Invoice) { i.ApplyFunding(investor, 1_050_000, s.now) },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusFunded, updated.Status)

	got, err := s.store.Get(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.StatusFunded, got.Status)
	s.Equal(investor, got.Investor)
	s.Equal(inv.Amount, got.FundedAmount)
	s.Require().NotNil(got.ExpectedReturn)
	s.Equal(uint64(1_050_000), *got.ExpectedReturn)
	s.Require().NotNil(got.FundingDate)
	s.True(got.FundingDate.Equal(s.now))
}

func (s *PostgresInvoiceStoreSuite) TestExecuteValidationFailureRollsBack() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newInvoice(1)))

	_, err := s.store.Execute(ctx, 1,
		func(i *models.Invoice) error { return dErrors.New(dErrors.CodeConflict, "rejected") },
		func(i *models.Invoice) { i.Status = models.StatusDefaulted },
	)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	got, err := s.store.Get(ctx, 1)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingFunding, got.Status)
}

func (s *PostgresInvoiceStoreSuite) TestExecuteMissing() {
	_, err := s.store.Execute(context.Background(), 404, nil, func(i *models.Invoice) {})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
