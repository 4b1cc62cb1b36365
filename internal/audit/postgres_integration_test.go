//go:build integration

package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"factorline/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	db    *sql.DB
	store *PostgresStore
}

func TestPostgresAuditSuite(t *testing.T) {
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())

	db, err := sql.Open("postgres", s.pg.URL)
	s.Require().NoError(err)
	s.Require().NoError(db.PingContext(context.Background()))
	s.db = db

	s.store = NewPostgresStore(db)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresAuditSuite) TearDownSuite() {
	_ = s.db.Close()
	s.pg.Pool.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresAuditSuite) SetupTest() {
	_, err := s.db.ExecContext(context.Background(), `TRUNCATE audit_outbox`)
	s.Require().NoError(err)
}

func (s *PostgresAuditSuite) stampedEvent(eventID string, action Action, at time.Time) Event {
	e := Event{
		ID:        eventID,
		Action:    action,
		InvoiceID: 1,
		Timestamp: at,
		Amount:    1_000_000,
	}
	e.Fingerprint = e.ComputeFingerprint()
	return e
}

func (s *PostgresAuditSuite) TestAppendAndListPreservesOrderAndFingerprint() {
	ctx := context.Background()
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	created := s.stampedEvent("11111111-1111-4111-8111-111111111111", ActionInvoiceCreated, base)
	funded := s.stampedEvent("22222222-2222-4222-8222-222222222222", ActionInvoiceFunded, base.Add(time.Minute))
	s.Require().NoError(s.store.Append(ctx, created))
	s.Require().NoError(s.store.Append(ctx, funded))

	events, err := s.store.ListByInvoice(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(ActionInvoiceCreated, events[0].Action)
	s.Equal(ActionInvoiceFunded, events[1].Action)
	s.True(events[0].Verify())
	s.True(events[1].Verify())
}

func (s *PostgresAuditSuite) TestOutboxFlow() {
	ctx := context.Background()
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	first := s.stampedEvent("11111111-1111-4111-8111-111111111111", ActionInvoiceCreated, base)
	second := s.stampedEvent("22222222-2222-4222-8222-222222222222", ActionInvoiceFunded, base.Add(time.Minute))
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))

	pending, err := s.store.PendingOutbox(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(first.ID, pending[0].ID)

	s.Require().NoError(s.store.MarkPublished(ctx, []string{first.ID}))

	pending, err = s.store.PendingOutbox(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(second.ID, pending[0].ID)

	s.Require().NoError(s.store.MarkPublished(ctx, []string{second.ID}))
	pending, err = s.store.PendingOutbox(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *PostgresAuditSuite) TestMarkPublishedEmptyIsNoop() {
	s.Require().NoError(s.store.MarkPublished(context.Background(), nil))
}
