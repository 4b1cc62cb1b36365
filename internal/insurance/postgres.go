package insurance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"factorline/pkg/platform/sentinel"
)

// PostgresPool persists the pool balance in a single-row table, serializing
// updates through row locks so concurrent credits never lose an increment.
type PostgresPool struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresPool {
	return &PostgresPool{db: db}
}

// Migrate creates the pool table and its singleton row.
func (p *PostgresPool) Migrate(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS insurance_pool (
			id      smallint PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			balance bigint NOT NULL DEFAULT 0 CHECK (balance >= 0)
		);
		INSERT INTO insurance_pool (id, balance) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("migrate insurance pool: %w", err)
	}
	return nil
}

func (p *PostgresPool) Balance(ctx context.Context) (uint64, error) {
	var balance uint64
	err := p.db.QueryRow(ctx, `SELECT balance FROM insurance_pool WHERE id = 1`).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("insurance pool row: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read insurance pool balance: %w", err)
	}
	return balance, nil
}

func (p *PostgresPool) Credit(ctx context.Context, amount uint64) (uint64, error) {
	var balance uint64
	err := p.db.QueryRow(ctx,
		`UPDATE insurance_pool SET balance = balance + $1 WHERE id = 1 RETURNING balance`,
		amount,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("credit insurance pool: %w", err)
	}
	return balance, nil
}

func (p *PostgresPool) Debit(ctx context.Context, amount uint64) (uint64, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin pool debit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance uint64
	if err := tx.QueryRow(ctx, `SELECT balance FROM insurance_pool WHERE id = 1 FOR UPDATE`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("lock insurance pool: %w", err)
	}
	if balance < amount {
		return balance, fmt.Errorf("pool balance %d cannot cover %d: %w", balance, amount, sentinel.ErrInsufficient)
	}
	if err := tx.QueryRow(ctx,
		`UPDATE insurance_pool SET balance = balance - $1 WHERE id = 1 RETURNING balance`,
		amount,
	).Scan(&balance); err != nil {
		return 0, fmt.Errorf("debit insurance pool: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit pool debit: %w", err)
	}
	return balance, nil
}
