package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"factorline/internal/ledger/models"
	id "factorline/pkg/domain"
	"factorline/pkg/platform/sentinel"
)

// PostgresInvoiceStore persists invoices in postgres. Execute serializes
// check-and-mutate per invoice through SELECT ... FOR UPDATE.
type PostgresInvoiceStore struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *PostgresInvoiceStore {
	return &PostgresInvoiceStore{db: db}
}

// Migrate creates the invoices table.
func (s *PostgresInvoiceStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS invoices (
			invoice_id             bigint PRIMARY KEY,
			business_owner         uuid NOT NULL,
			investor               uuid,
			amount                 bigint NOT NULL CHECK (amount > 0),
			funded_amount          bigint NOT NULL DEFAULT 0,
			due_date               timestamptz NOT NULL,
			debtor_info            text NOT NULL,
			status                 text NOT NULL,
			risk_score             smallint NOT NULL,
			insurance_premium      bigint NOT NULL,
			industry_risk          smallint NOT NULL,
			credit_score           integer NOT NULL,
			payment_terms_days     integer NOT NULL,
			created_at             timestamptz NOT NULL,
			funding_date           timestamptz,
			expected_return        bigint,
			repayment_date         timestamptz,
			final_repayment_amount bigint,
			late_fee               bigint,
			insurance_claim_date   timestamptz,
			insurance_payout       bigint
		);
		CREATE INDEX IF NOT EXISTS invoices_status_idx ON invoices (status, invoice_id);
	`)
	if err != nil {
		return fmt.Errorf("migrate invoices: %w", err)
	}
	return nil
}

func (s *PostgresInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO invoices (
			invoice_id, business_owner, investor, amount, funded_amount, due_date,
			debtor_info, status, risk_score, insurance_premium, industry_risk,
			credit_score, payment_terms_days, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, int64(inv.ID), uuid.UUID(inv.BusinessOwner), nullableParty(inv.Investor),
		int64(inv.Amount), int64(inv.FundedAmount), inv.DueDate, inv.DebtorInfo,
		string(inv.Status), int16(inv.RiskScore), int64(inv.InsurancePremium),
		int16(inv.IndustryRisk), int32(inv.CreditScore), int32(inv.PaymentTermsDays),
		inv.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("invoice %s: %w", inv.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (s *PostgresInvoiceStore) Get(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error) {
	return scanInvoice(s.db.QueryRow(ctx, selectInvoice+` WHERE invoice_id = $1`, int64(invoiceID)))
}

func (s *PostgresInvoiceStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Invoice, error) {
	rows, err := s.db.Query(ctx, selectInvoice+` WHERE status = $1 ORDER BY invoice_id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("query invoices by status: %w", err)
	}
	defer rows.Close()

	var out []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Execute locks the invoice row, runs validate then apply, and persists the
// mutable columns in the same transaction.
func (s *PostgresInvoiceStore) Execute(
	ctx context.Context,
	invoiceID id.InvoiceID,
	validate func(*models.Invoice) error,
	apply func(*models.Invoice),
) (*models.Invoice, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin invoice update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inv, err := scanInvoice(tx.QueryRow(ctx, selectInvoice+` WHERE invoice_id = $1 FOR UPDATE`, int64(invoiceID)))
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(inv); err != nil {
			return nil, err
		}
	}
	apply(inv)

	_, err = tx.Exec(ctx, `
		UPDATE invoices SET
			investor = $2, funded_amount = $3, status = $4, funding_date = $5,
			expected_return = $6, repayment_date = $7, final_repayment_amount = $8,
			late_fee = $9, insurance_claim_date = $10, insurance_payout = $11
		WHERE invoice_id = $1
	`, int64(invoiceID), nullableParty(inv.Investor), int64(inv.FundedAmount),
		string(inv.Status), inv.FundingDate, nullableU64(inv.ExpectedReturn),
		inv.RepaymentDate, nullableU64(inv.FinalRepaymentAmount),
		nullableU64(inv.LateFee), inv.InsuranceClaimDate, nullableU64(inv.InsurancePayout))
	if err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invoice update: %w", err)
	}
	return inv, nil
}

const selectInvoice = `
	SELECT invoice_id, business_owner, investor, amount, funded_amount, due_date,
	       debtor_info, status, risk_score, insurance_premium, industry_risk,
	       credit_score, payment_terms_days, created_at, funding_date,
	       expected_return, repayment_date, final_repayment_amount, late_fee,
	       insurance_claim_date, insurance_payout
	FROM invoices`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var (
		inv         models.Invoice
		invoiceID   int64
		owner       uuid.UUID
		investor    *uuid.UUID
		amount      int64
		funded      int64
		riskScore   int16
		premium     int64
		industry    int16
		credit      int32
		termDays    int32
		status      string
		expReturn   *int64
		finalAmount *int64
		lateFee     *int64
		payout      *int64
	)
	err := row.Scan(&invoiceID, &owner, &investor, &amount, &funded, &inv.DueDate,
		&inv.DebtorInfo, &status, &riskScore, &premium, &industry, &credit,
		&termDays, &inv.CreatedAt, &inv.FundingDate, &expReturn,
		&inv.RepaymentDate, &finalAmount, &lateFee, &inv.InsuranceClaimDate, &payout)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invoice: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}

	inv.ID = id.InvoiceID(invoiceID)
	inv.BusinessOwner = id.PartyID(owner)
	if investor != nil {
		inv.Investor = id.PartyID(*investor)
	}
	inv.Amount = uint64(amount)
	inv.FundedAmount = uint64(funded)
	inv.Status = models.Status(status)
	inv.RiskScore = uint8(riskScore)
	inv.InsurancePremium = uint64(premium)
	inv.IndustryRisk = uint8(industry)
	inv.CreditScore = uint16(credit)
	inv.PaymentTermsDays = uint16(termDays)
	inv.ExpectedReturn = u64Ptr(expReturn)
	inv.FinalRepaymentAmount = u64Ptr(finalAmount)
	inv.LateFee = u64Ptr(lateFee)
	inv.InsurancePayout = u64Ptr(payout)
	return &inv, nil
}

func nullableParty(p id.PartyID) *uuid.UUID {
	if p.IsNil() {
		return nil
	}
	u := uuid.UUID(p)
	return &u
}

func nullableU64(v *uint64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func u64Ptr(v *int64) *uint64 {
	if v == nil {
		return nil
	}
	n := uint64(*v)
	return &n
}
