package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "factorline/pkg/domain"
	"factorline/pkg/platform/sentinel"
)

// PostgresStore persists the registry singleton. Execute serializes
// check-and-mutate through SELECT ... FOR UPDATE on the single row.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the registry table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS global_registry (
			id                     smallint PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			total_invoices         bigint NOT NULL DEFAULT 0,
			total_funded           bigint NOT NULL DEFAULT 0,
			insurance_pool_balance bigint NOT NULL DEFAULT 0 CHECK (insurance_pool_balance >= 0),
			authority              uuid NOT NULL,
			settlement_asset       uuid NOT NULL,
			created_at             timestamptz NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate global registry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, state *State) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO global_registry (id, total_invoices, total_funded, insurance_pool_balance, authority, settlement_asset, created_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
	`, state.TotalInvoices, state.TotalFunded, state.InsurancePoolBalance,
		uuid.UUID(state.Authority), uuid.UUID(state.SettlementAsset), state.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("registry already initialized: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert global registry: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context) (*State, error) {
	return scanState(s.db.QueryRow(ctx, selectState))
}

// Execute locks the registry row, runs validate then apply, and persists the
// result in the same transaction.
func (s *PostgresStore) Execute(ctx context.Context, validate func(*State) error, apply func(*State)) (*State, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin registry update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	state, err := scanState(tx.QueryRow(ctx, selectState+` FOR UPDATE`))
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(state); err != nil {
			return nil, err
		}
	}
	apply(state)

	_, err = tx.Exec(ctx, `
		UPDATE global_registry
		SET total_invoices = $1, total_funded = $2, insurance_pool_balance = $3
		WHERE id = 1
	`, state.TotalInvoices, state.TotalFunded, state.InsurancePoolBalance)
	if err != nil {
		return nil, fmt.Errorf("update global registry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit registry update: %w", err)
	}
	return state, nil
}

const selectState = `
	SELECT total_invoices, total_funded, insurance_pool_balance, authority, settlement_asset, created_at
	FROM global_registry WHERE id = 1`

func scanState(row pgx.Row) (*State, error) {
	var (
		state     State
		authority uuid.UUID
		asset     uuid.UUID
		createdAt time.Time
	)
	err := row.Scan(&state.TotalInvoices, &state.TotalFunded, &state.InsurancePoolBalance,
		&authority, &asset, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("registry not initialized: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan global registry: %w", err)
	}
	state.Authority = id.PartyID(authority)
	state.SettlementAsset = id.AssetID(asset)
	state.CreatedAt = createdAt
	return &state, nil
}
