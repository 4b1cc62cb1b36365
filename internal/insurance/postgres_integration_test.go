//go:build integration

package insurance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"factorline/pkg/platform/sentinel"
	"factorline/pkg/testutil/containers"
)

type PostgresPoolSuite struct {
	suite.Suite

	pg   *containers.PostgresContainer
	pool *PostgresPool
}

func TestPostgresPoolSuite(t *testing.T) {
	suite.Run(t, new(PostgresPoolSuite))
}

func (s *PostgresPoolSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pool = NewPostgres(s.pg.Pool)
	s.Require().NoError(s.pool.Migrate(context.Background()))
}

func (s *PostgresPoolSuite) TearDownSuite() {
	s.pg.Pool.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresPoolSuite) SetupTest() {
	_, err := s.pg.Pool.Exec(context.Background(), `UPDATE insurance_pool SET balance = 0 WHERE id = 1`)
	s.Require().NoError(err)
}

func (s *PostgresPoolSuite) TestMigrateSeedsSingletonRow() {
	bal, err := s.pool.Balance(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(0), bal)

	// Re-running the migration must not reset or duplicate the row.
	s.Require().NoError(s.pool.Migrate(context.Background()))
}

func (s *PostgresPoolSuite) TestCreditAndDebit() {
	ctx := context.Background()

	bal, err := s.pool.Credit(ctx, 40_000)
	s.Require().NoError(err)
	s.Equal(uint64(40_000), bal)

	bal, err = s.pool.Debit(ctx, 15_000)
	s.Require().NoError(err)
	s.Equal(uint64(25_000), bal)

	bal, err = s.pool.Balance(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(25_000), bal)
}

func (s *PostgresPoolSuite) TestDebitUnderflowRejected() {
	ctx := context.Background()

	_, err := s.pool.Credit(ctx, 100)
	s.Require().NoError(err)

	_, err = s.pool.Debit(ctx, 101)
	s.Require().ErrorIs(err, sentinel.ErrInsufficient)

	bal, err := s.pool.Balance(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(100), bal)
}
