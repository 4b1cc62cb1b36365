//go:build integration

package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
	"factorline/pkg/platform/sentinel"
	"factorline/pkg/testutil/containers"
)

type PostgresRegistrySuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresRegistrySuite(t *testing.T) {
	suite.Run(t, new(PostgresRegistrySuite))
}

func (s *PostgresRegistrySuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.Pool)
	s.Require().NoError(s.store.Migrate(context.Background()))
}

func (s *PostgresRegistrySuite) TearDownSuite() {
	s.pg.Pool.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresRegistrySuite) SetupTest() {
	_, err := s.pg.Pool.Exec(context.Background(), `TRUNCATE global_registry`)
	s.Require().NoError(err)
}

func (s *PostgresRegistrySuite) seedState() *State {
	return &State{
		Authority:       id.PartyID(uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa")),
		SettlementAsset: id.AssetID(uuid.MustParse("bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb")),
		CreatedAt:       time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresRegistrySuite) TestCreateAndGet() {
	ctx := context.Background()
	want := s.seedState()
	s.Require().NoError(s.store.Create(ctx, want))

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(want.Authority, got.Authority)
	s.Equal(want.SettlementAsset, got.SettlementAsset)
	s.True(got.CreatedAt.Equal(want.CreatedAt))
	s.Equal(uint64(0), got.TotalInvoices)
}

func (s *PostgresRegistrySuite) TestCreateTwiceConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.seedState()))
	err := s.store.Create(ctx, s.seedState())
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresRegistrySuite) TestGetBeforeCreate() {
	_, err := s.store.Get(context.Background())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresRegistrySuite) TestExecutePersistsCounters() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.seedState()))

	updated, err := s.store.Execute(ctx, nil, func(st *State) {
		st.TotalInvoices++
		st.TotalFunded += 1_000_000
		st.InsurancePoolBalance += 40_000
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), updated.TotalInvoices)

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), got.TotalInvoices)
	s.Equal(uint64(1_000_000), got.TotalFunded)
	s.Equal(uint64(40_000), got.InsurancePoolBalance)
}

func (s *PostgresRegistrySuite) TestExecuteValidationRollsBack() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.seedState()))

	_, err := s.store.Execute(ctx,
		func(st *State) error {
			if st.InsurancePoolBalance < 500 {
				return dErrors.New(dErrors.CodeInternal, "registry pool mirror underflow")
			}
			return nil
		},
		func(st *State) { st.InsurancePoolBalance -= 500 },
	)
	s.Require().Error(err)

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(0), got.InsurancePoolBalance)
}
