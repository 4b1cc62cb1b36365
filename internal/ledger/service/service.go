// Package service orchestrates the invoice lifecycle: creation, funding,
// repayment, and insurance claims.
//
// The service owns ordering and atomicity. For every mutating operation it
// (1) validates all preconditions against a consistent snapshot, (2) moves
// money through the value-transfer port, (3) mutates the invoice and the
// global aggregates, and (4) emits exactly one audit event. A failed transfer
// aborts the operation before any local mutation; there is no retry loop and
// no partial commit.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"factorline/internal/audit"
	ledgermetrics "factorline/internal/ledger/metrics"
	"factorline/internal/ledger/models"
	"factorline/internal/registry"
	"factorline/internal/risk"
	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
	"factorline/pkg/platform/sentinel"
	"factorline/pkg/requestcontext"
)

// InvoiceStore persists invoice records. Execute must hold the record's lock
// (mutex or FOR UPDATE) across both callbacks so check-and-mutate is atomic.
type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) error
	Get(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Invoice, error)
	Execute(ctx context.Context, invoiceID id.InvoiceID,
		validate func(*models.Invoice) error,
		apply func(*models.Invoice)) (*models.Invoice, error)
}

// RegistryStore persists the global registry singleton with the same Execute
// discipline.
type RegistryStore interface {
	Create(ctx context.Context, state *registry.State) error
	Get(ctx context.Context) (*registry.State, error)
	Execute(ctx context.Context, validate func(*registry.State) error, apply func(*registry.State)) (*registry.State, error)
}

// InsurancePool is the shared pool aggregate fed by premiums and drained by
// claims.
type InsurancePool interface {
	Balance(ctx context.Context) (uint64, error)
	Credit(ctx context.Context, amount uint64) (uint64, error)
	Debit(ctx context.Context, amount uint64) (uint64, error)
}

// ValueTransferPort moves settlement-asset balances between parties. It is an
// external collaborator: each call either completes or fails atomically,
// leaving both balances untouched on failure.
type ValueTransferPort interface {
	Balance(ctx context.Context, party id.PartyID) (uint64, error)
	Transfer(ctx context.Context, from, to id.PartyID, amount uint64) error
	TransferToPool(ctx context.Context, from id.PartyID, amount uint64) error
	TransferFromPool(ctx context.Context, to id.PartyID, amount uint64) error
}

// RiskEngine prices an invoice at creation time. Implementations must be
// deterministic given their inputs.
type RiskEngine interface {
	Assess(amount uint64, dueDate time.Time, originator id.PartyID, now time.Time) risk.Assessment
}

// AuditEmitter records the immutable event trail. Emission is fail-closed:
// an operation whose event cannot be recorded reports the failure.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
	List(ctx context.Context, invoiceID id.InvoiceID) ([]audit.Event, error)
}

// Service implements the marketplace operations.
type Service struct {
	invoices  InvoiceStore
	registry  RegistryStore
	pool      InsurancePool
	transfers ValueTransferPort
	risk      RiskEngine
	auditor   AuditEmitter
	metrics   *ledgermetrics.Metrics
	tracer    trace.Tracer

	// locks serializes the full precondition-transfer-mutate sequence per
	// invoice. Operations on different invoices proceed concurrently;
	// aggregate updates serialize inside their own stores.
	locks keyedMutex
}

func New(
	invoices InvoiceStore,
	reg RegistryStore,
	pool InsurancePool,
	transfers ValueTransferPort,
	riskEngine RiskEngine,
	auditor AuditEmitter,
	m *ledgermetrics.Metrics,
) *Service {
	return &Service{
		invoices:  invoices,
		registry:  reg,
		pool:      pool,
		transfers: transfers,
		risk:      riskEngine,
		auditor:   auditor,
		metrics:   m,
		tracer:    otel.Tracer("factorline/ledger"),
	}
}

// Initialize bootstraps the global registry. Idempotent: when the registry
// already exists, the existing state is returned unchanged.
func (s *Service) Initialize(ctx context.Context, authority id.PartyID, asset id.AssetID) (*registry.State, error) {
	if authority.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "authority is required")
	}
	if asset.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "settlement asset is required")
	}

	state := &registry.State{
		Authority:       authority,
		SettlementAsset: asset,
		CreatedAt:       requestcontext.Now(ctx),
	}
	err := s.registry.Create(ctx, state)
	if errors.Is(err, sentinel.ErrConflict) {
		return s.registry.Get(ctx)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize registry")
	}
	return state, nil
}

// CreateInvoice prices and records a new invoice in PendingFunding state.
func (s *Service) CreateInvoice(
	ctx context.Context,
	invoiceID id.InvoiceID,
	owner id.PartyID,
	amount uint64,
	dueDate time.Time,
	debtorInfo string,
) (*models.Invoice, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.CreateInvoice", trace.WithAttributes(
		attribute.String("invoice.id", invoiceID.String()),
		attribute.Int64("invoice.amount", int64(amount)),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	assessment := s.risk.Assess(amount, dueDate, owner, now)

	inv, err := models.NewInvoice(invoiceID, owner, amount, dueDate, debtorInfo, models.RiskProfile{
		Score:        assessment.RiskScore,
		IndustryRisk: assessment.IndustryRisk,
		CreditScore:  assessment.EstimatedCreditScore,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "invoice id %s is already in use", invoiceID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create invoice")
	}

	if _, err := s.registry.Execute(ctx, nil, func(st *registry.State) {
		st.TotalInvoices++
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registry")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:            audit.ActionInvoiceCreated,
		InvoiceID:         inv.ID,
		BusinessOwner:     inv.BusinessOwner.String(),
		Amount:            inv.Amount,
		RiskScore:         inv.RiskScore,
		InsurancePremium:  inv.InsurancePremium,
		EstimatedYieldBps: assessment.EstimatedYieldBps,
	}); err != nil {
		return nil, err
	}

	s.incrementCreated(start)
	return inv, nil
}

// FundInvoice advances the full principal from the investor to the business
// owner and pays the risk premium into the insurance pool. Both transfers
// must succeed before the invoice or any aggregate mutates.
func (s *Service) FundInvoice(ctx context.Context, invoiceID id.InvoiceID, investor id.PartyID, amount uint64) (*models.Invoice, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.FundInvoice", trace.WithAttributes(
		attribute.String("invoice.id", invoiceID.String()),
		attribute.Int64("funding.amount", int64(amount)),
	))
	defer span.End()

	unlock := s.locks.lock(invoiceID)
	defer unlock()

	inv, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.CanFund(amount); err != nil {
		return nil, err
	}

	totalCost, err := inv.TotalFundingCost()
	if err != nil {
		return nil, err
	}
	available, err := s.transfers.Balance(ctx, investor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read investor balance")
	}
	if available < totalCost {
		return nil, dErrors.Newf(dErrors.CodeInsufficientFunds,
			"funding requires %d (principal plus premium), investor holds %d", totalCost, available)
	}
	expectedReturn, err := inv.ExpectedReturnAmount()
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if err := s.transfers.Transfer(ctx, investor, inv.BusinessOwner, amount); err != nil {
		return nil, translateTransferErr(err, "principal transfer failed")
	}
	if err := s.transfers.TransferToPool(ctx, investor, inv.InsurancePremium); err != nil {
		return nil, translateTransferErr(err, "premium transfer failed")
	}

	inv, err = s.invoices.Execute(ctx, invoiceID,
		func(i *models.Invoice) error { return i.CanFund(amount) },
		func(i *models.Invoice) { i.ApplyFunding(investor, expectedReturn, now) },
	)
	if err != nil {
		return nil, wrapInvoiceErr(err)
	}

	if _, err := s.registry.Execute(ctx, nil, func(st *registry.State) {
		st.TotalFunded += amount
		st.InsurancePoolBalance += inv.InsurancePremium
	}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registry")
	}
	poolBalance, err := s.pool.Credit(ctx, inv.InsurancePremium)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit insurance pool")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:           audit.ActionInvoiceFunded,
		InvoiceID:        inv.ID,
		Investor:         investor.String(),
		Amount:           amount,
		InsurancePremium: inv.InsurancePremium,
		ExpectedReturn:   expectedReturn,
	}); err != nil {
		return nil, err
	}

	s.incrementFunded(start, amount, poolBalance)
	return inv, nil
}

// RepayInvoice settles a funded invoice: the business owner moves the
// repayment (plus any late fee) to the investor. Accepted through the end of
// the 30-day grace period; later attempts are rejected outright.
func (s *Service) RepayInvoice(ctx context.Context, invoiceID id.InvoiceID, owner id.PartyID, repaymentAmount uint64) (*models.Invoice, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.RepayInvoice", trace.WithAttributes(
		attribute.String("invoice.id", invoiceID.String()),
		attribute.Int64("repayment.amount", int64(repaymentAmount)),
	))
	defer span.End()

	unlock := s.locks.lock(invoiceID)
	defer unlock()

	inv, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if owner != inv.BusinessOwner {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the business owner may repay the invoice")
	}

	now := requestcontext.Now(ctx)
	quote, err := inv.QuoteRepayment(repaymentAmount, now)
	if err != nil {
		return nil, err
	}

	available, err := s.transfers.Balance(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read business owner balance")
	}
	if available < quote.TotalRepayment {
		return nil, dErrors.Newf(dErrors.CodeInsufficientFunds,
			"repayment requires %d (including late fee of %d), owner holds %d",
			quote.TotalRepayment, quote.LateFee, available)
	}

	if err := s.transfers.Transfer(ctx, owner, inv.Investor, quote.TotalRepayment); err != nil {
		return nil, translateTransferErr(err, "repayment transfer failed")
	}

	inv, err = s.invoices.Execute(ctx, invoiceID,
		func(i *models.Invoice) error { return i.CanRepay(repaymentAmount, now) },
		func(i *models.Invoice) { i.ApplyRepayment(quote.TotalRepayment, quote.LateFee, now) },
	)
	if err != nil {
		return nil, wrapInvoiceErr(err)
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:      audit.ActionInvoiceRepaid,
		InvoiceID:   inv.ID,
		Amount:      quote.TotalRepayment,
		LateFee:     quote.LateFee,
		DaysOverdue: quote.DaysOverdue,
	}); err != nil {
		return nil, err
	}

	s.incrementRepaid(start, quote.LateFee)
	return inv, nil
}

// ClaimInsurance pays a defaulted invoice's investor a risk-tiered share of
// the funded amount out of the insurance pool. Only the funding investor may
// claim, and only strictly after the grace period ends.
func (s *Service) ClaimInsurance(ctx context.Context, invoiceID id.InvoiceID, claimant id.PartyID) (*models.Invoice, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger.ClaimInsurance", trace.WithAttributes(
		attribute.String("invoice.id", invoiceID.String()),
	))
	defer span.End()

	unlock := s.locks.lock(invoiceID)
	defer unlock()

	inv, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := inv.CanClaim(claimant, now); err != nil {
		return nil, err
	}

	payout, err := inv.InsurancePayoutAmount()
	if err != nil {
		return nil, err
	}
	poolBalance, err := s.pool.Balance(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read insurance pool")
	}
	if poolBalance < payout {
		return nil, dErrors.Newf(dErrors.CodeInsufficientFunds,
			"insurance pool holds %d, payout requires %d", poolBalance, payout)
	}

	if err := s.transfers.TransferFromPool(ctx, claimant, payout); err != nil {
		return nil, translateTransferErr(err, "insurance payout transfer failed")
	}

	inv, err = s.invoices.Execute(ctx, invoiceID,
		func(i *models.Invoice) error { return i.CanClaim(claimant, now) },
		func(i *models.Invoice) { i.ApplyClaim(payout, now) },
	)
	if err != nil {
		return nil, wrapInvoiceErr(err)
	}

	poolBalance, err = s.pool.Debit(ctx, payout)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit insurance pool")
	}
	if _, err := s.registry.Execute(ctx,
		func(st *registry.State) error {
			if st.InsurancePoolBalance < payout {
				return dErrors.New(dErrors.CodeInternal, "registry pool mirror underflow")
			}
			return nil
		},
		func(st *registry.State) { st.InsurancePoolBalance -= payout },
	); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registry")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		Action:          audit.ActionInsuranceClaimed,
		InvoiceID:       inv.ID,
		Investor:        claimant.String(),
		PayoutAmount:    payout,
		CoveragePercent: inv.CoveragePercent(),
	}); err != nil {
		return nil, err
	}

	s.incrementDefaulted(start, poolBalance)
	return inv, nil
}

// GetInvoice returns the invoice record. Read-only; no precondition beyond
// existence.
func (s *Service) GetInvoice(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error) {
	return s.getInvoice(ctx, invoiceID)
}

// ListInvoices returns all invoices in the given status, for marketplace
// browsing.
func (s *Service) ListInvoices(ctx context.Context, status models.Status) ([]*models.Invoice, error) {
	out, err := s.invoices.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list invoices")
	}
	return out, nil
}

// ListEvents returns one invoice's audit trail in append order.
func (s *Service) ListEvents(ctx context.Context, invoiceID id.InvoiceID) ([]audit.Event, error) {
	if _, err := s.getInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	events, err := s.auditor.List(ctx, invoiceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list invoice events")
	}
	return events, nil
}

// Registry returns the current global registry state.
func (s *Service) Registry(ctx context.Context) (*registry.State, error) {
	state, err := s.registry.Get(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registry")
	}
	return state, nil
}

func (s *Service) getInvoice(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error) {
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, wrapInvoiceErr(err)
	}
	return inv, nil
}

func wrapInvoiceErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "invoice not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "invoice already exists")
	default:
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			// Coded errors from Can* validators pass through untouched.
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "invoice store failure")
	}
}

// translateTransferErr maps port failures onto the error taxonomy. Balance
// preconditions are checked before transferring, so an insufficiency here
// means the snapshot raced an external movement; it is still reported as an
// insufficiency the caller can act on.
func translateTransferErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrInsufficient) {
		return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) incrementCreated(start time.Time) {
	if s.metrics != nil {
		s.metrics.IncrementCreated()
		s.metrics.ObserveCreate(start)
	}
}

func (s *Service) incrementFunded(start time.Time, amount, poolBalance uint64) {
	if s.metrics != nil {
		s.metrics.IncrementFunded(amount)
		s.metrics.SetPoolBalance(poolBalance)
		s.metrics.ObserveFund(start)
	}
}

func (s *Service) incrementRepaid(start time.Time, lateFee uint64) {
	if s.metrics != nil {
		s.metrics.IncrementRepaid()
		s.metrics.AddLateFees(lateFee)
		s.metrics.ObserveRepay(start)
	}
}

func (s *Service) incrementDefaulted(start time.Time, poolBalance uint64) {
	if s.metrics != nil {
		s.metrics.IncrementDefaulted()
		s.metrics.SetPoolBalance(poolBalance)
		s.metrics.ObserveClaim(start)
	}
}
