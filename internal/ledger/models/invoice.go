package models

import (
	"time"

	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
)

const (
	// MaxInvoiceAmount is the hard principal ceiling (10,000 whole units of a
	// 6-decimal settlement asset).
	MaxInvoiceAmount uint64 = 10_000_000_000

	// MaxTerm bounds how far in the future a due date may lie.
	MaxTerm = 365 * 24 * time.Hour

	// GracePeriod is the window after the due date during which repayment
	// (with late fee) is still accepted. The insurance claim window opens
	// strictly after it ends, so an invoice can never be both repaid and
	// claimed.
	GracePeriod = 30 * 24 * time.Hour

	minDebtorInfoLen = 10
	maxDebtorInfoLen = 200

	day = 24 * time.Hour
)

// RiskProfile is the pricing input fixed on an invoice at creation time.
type RiskProfile struct {
	Score        uint8
	IndustryRisk uint8
	CreditScore  uint16
}

// Invoice is the aggregate root for a financed invoice.
//
// Invariants:
//   - Amount, DueDate, DebtorInfo, RiskScore and InsurancePremium are fixed at
//     creation and never change.
//   - FundedAmount is 0 until funded, then equals Amount (no partial funding).
//   - Exactly one of the repayment terminal fields (RepaymentDate,
//     FinalRepaymentAmount, LateFee) or the default terminal fields
//     (InsuranceClaimDate, InsurancePayout) is ever populated, and only by the
//     corresponding Apply* transition.
//   - Records are never deleted; terminal invoices remain as audit history.
//
// Mutate only through the Can*/Apply* pairs so illegal transitions are
// rejected before any state changes.
type Invoice struct {
	ID            id.InvoiceID `json:"invoice_id"`
	BusinessOwner id.PartyID   `json:"business_owner"`
	Investor      id.PartyID   `json:"investor"`
	Amount        uint64       `json:"amount"`
	FundedAmount  uint64       `json:"funded_amount"`
	DueDate       time.Time    `json:"due_date"`
	DebtorInfo    string       `json:"debtor_info"`
	Status        Status       `json:"status"`

	RiskScore        uint8  `json:"risk_score"`
	InsurancePremium uint64 `json:"insurance_premium"`
	IndustryRisk     uint8  `json:"industry_risk"`
	CreditScore      uint16 `json:"credit_score"`
	PaymentTermsDays uint16 `json:"payment_terms_days"`

	CreatedAt time.Time `json:"created_at"`

	FundingDate          *time.Time `json:"funding_date,omitempty"`
	ExpectedReturn       *uint64    `json:"expected_return,omitempty"`
	RepaymentDate        *time.Time `json:"repayment_date,omitempty"`
	FinalRepaymentAmount *uint64    `json:"final_repayment_amount,omitempty"`
	LateFee              *uint64    `json:"late_fee,omitempty"`
	InsuranceClaimDate   *time.Time `json:"insurance_claim_date,omitempty"`
	InsurancePayout      *uint64    `json:"insurance_payout,omitempty"`
}

// Clone returns a deep copy so stores can hand out records without aliasing
// their internal state.
func (inv *Invoice) Clone() *Invoice {
	cp := *inv
	cp.FundingDate = cloneTime(inv.FundingDate)
	cp.ExpectedReturn = cloneU64(inv.ExpectedReturn)
	cp.RepaymentDate = cloneTime(inv.RepaymentDate)
	cp.FinalRepaymentAmount = cloneU64(inv.FinalRepaymentAmount)
	cp.LateFee = cloneU64(inv.LateFee)
	cp.InsuranceClaimDate = cloneTime(inv.InsuranceClaimDate)
	cp.InsurancePayout = cloneU64(inv.InsurancePayout)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneU64(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// NewInvoice validates creation input and constructs a PendingFunding invoice.
// All checks run before anything is built; the first failing check is
// reported.
func NewInvoice(
	invoiceID id.InvoiceID,
	owner id.PartyID,
	amount uint64,
	dueDate time.Time,
	debtorInfo string,
	profile RiskProfile,
	now time.Time,
) (*Invoice, error) {
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if amount > MaxInvoiceAmount {
		return nil, dErrors.Newf(dErrors.CodeValidation, "amount exceeds ceiling of %d minor units", MaxInvoiceAmount)
	}
	if !dueDate.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "due date must be in the future")
	}
	if dueDate.After(now.Add(MaxTerm)) {
		return nil, dErrors.New(dErrors.CodeValidation, "due date cannot be more than one year out")
	}
	if len(debtorInfo) < minDebtorInfoLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "debtor info must be at least %d characters", minDebtorInfoLen)
	}
	if len(debtorInfo) > maxDebtorInfoLen {
		return nil, dErrors.Newf(dErrors.CodeValidation, "debtor info must be at most %d characters", maxDebtorInfoLen)
	}
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "business owner is required")
	}

	premium, err := insurancePremium(amount, profile.Score)
	if err != nil {
		return nil, err
	}

	return &Invoice{
		ID:               invoiceID,
		BusinessOwner:    owner,
		Amount:           amount,
		DueDate:          dueDate,
		DebtorInfo:       debtorInfo,
		Status:           StatusPendingFunding,
		RiskScore:        profile.Score,
		InsurancePremium: premium,
		IndustryRisk:     profile.IndustryRisk,
		CreditScore:      profile.CreditScore,
		PaymentTermsDays: uint16(dueDate.Sub(now) / day),
		CreatedAt:        now,
	}, nil
}

// insurancePremium is floor(amount * riskScore / 1000): a [1%, 5%] risk-based
// fee paid by the investor into the shared pool at funding time.
func insurancePremium(amount uint64, riskScore uint8) (uint64, error) {
	product, err := checkedMul(amount, uint64(riskScore))
	if err != nil {
		return 0, err
	}
	return product / 1000, nil
}

// CanFund checks the funding preconditions against the current state.
// The investor must fund the full principal; partial funding is rejected.
func (inv *Invoice) CanFund(amount uint64) error {
	if !inv.Status.CanTransitionTo(StatusFunded) {
		return dErrors.Newf(dErrors.CodeConflict, "invoice is %s, not open for funding", inv.Status)
	}
	if amount != inv.Amount {
		return dErrors.Newf(dErrors.CodeValidation, "must fund the full amount of %d", inv.Amount)
	}
	return nil
}

// TotalFundingCost is the principal plus the insurance premium: the balance
// the investor must hold before funding proceeds.
func (inv *Invoice) TotalFundingCost() (uint64, error) {
	return checkedAdd(inv.Amount, inv.InsurancePremium)
}

// ExpectedReturnAmount is amount + floor(amount * riskScore / 500): the
// principal plus a yield of twice the risk score in basis points of principal.
func (inv *Invoice) ExpectedReturnAmount() (uint64, error) {
	product, err := checkedMul(inv.Amount, uint64(inv.RiskScore))
	if err != nil {
		return 0, err
	}
	return checkedAdd(inv.Amount, product/500)
}

// ApplyFunding transitions the invoice to Funded. Call CanFund first and
// complete both settlement transfers before applying.
func (inv *Invoice) ApplyFunding(investor id.PartyID, expectedReturn uint64, now time.Time) {
	inv.Status = StatusFunded
	inv.FundedAmount = inv.Amount
	inv.Investor = investor
	inv.FundingDate = &now
	inv.ExpectedReturn = &expectedReturn
}

// CanRepay checks the repayment preconditions. Repayment is accepted through
// the end of the grace period; afterwards it is rejected outright, not merely
// penalized.
func (inv *Invoice) CanRepay(repaymentAmount uint64, now time.Time) error {
	if !inv.Status.CanTransitionTo(StatusRepaid) {
		return dErrors.Newf(dErrors.CodeConflict, "invoice is %s, not funded", inv.Status)
	}
	if repaymentAmount < inv.FundedAmount {
		return dErrors.Newf(dErrors.CodeValidation, "repayment must cover the funded amount of %d", inv.FundedAmount)
	}
	if now.After(inv.DueDate.Add(GracePeriod)) {
		return dErrors.New(dErrors.CodeWindowClosed, "repayment period expired; the invoice is claimable by the investor")
	}
	return nil
}

// AssessLateFee computes the simple, uncompounded late fee of 0.05% of the
// funded amount per full day overdue. Zero when repaying on or before the due
// date.
func (inv *Invoice) AssessLateFee(now time.Time) (fee uint64, daysOverdue uint16, err error) {
	if !now.After(inv.DueDate) {
		return 0, 0, nil
	}
	days := uint64(now.Sub(inv.DueDate) / day)
	product, err := checkedMul(inv.FundedAmount, days)
	if err != nil {
		return 0, 0, err
	}
	product, err = checkedMul(product, 5)
	if err != nil {
		return 0, 0, err
	}
	return product / 10000, uint16(days), nil
}

// RepaymentQuote is the assessed cost of settling an invoice at a given time.
type RepaymentQuote struct {
	TotalRepayment uint64
	LateFee        uint64
	DaysOverdue    uint16
}

// QuoteRepayment validates the repayment and computes the total the business
// owner must move: the offered amount plus any late fee.
func (inv *Invoice) QuoteRepayment(repaymentAmount uint64, now time.Time) (RepaymentQuote, error) {
	if err := inv.CanRepay(repaymentAmount, now); err != nil {
		return RepaymentQuote{}, err
	}
	fee, days, err := inv.AssessLateFee(now)
	if err != nil {
		return RepaymentQuote{}, err
	}
	total, err := checkedAdd(repaymentAmount, fee)
	if err != nil {
		return RepaymentQuote{}, err
	}
	return RepaymentQuote{TotalRepayment: total, LateFee: fee, DaysOverdue: days}, nil
}

// ApplyRepayment transitions the invoice to Repaid. Call CanRepay first and
// complete the settlement transfer before applying.
func (inv *Invoice) ApplyRepayment(totalRepayment, lateFee uint64, now time.Time) {
	inv.Status = StatusRepaid
	inv.RepaymentDate = &now
	inv.FinalRepaymentAmount = &totalRepayment
	inv.LateFee = &lateFee
}

// CanClaim checks the insurance claim preconditions. Only the invoice's
// investor may claim, and only strictly after the repayment grace period has
// fully elapsed.
func (inv *Invoice) CanClaim(claimant id.PartyID, now time.Time) error {
	if !inv.Status.CanTransitionTo(StatusDefaulted) {
		return dErrors.Newf(dErrors.CodeConflict, "invoice is %s, not funded", inv.Status)
	}
	if claimant != inv.Investor {
		return dErrors.New(dErrors.CodeUnauthorized, "only the funding investor may claim insurance")
	}
	if !now.After(inv.DueDate.Add(GracePeriod)) {
		return dErrors.New(dErrors.CodeWindowClosed, "claim window opens 30 days after the due date")
	}
	return nil
}

// CoveragePercent is the insurance coverage tier for the invoice's risk score.
func (inv *Invoice) CoveragePercent() uint64 {
	switch {
	case inv.RiskScore <= 20:
		return 90
	case inv.RiskScore <= 35:
		return 80
	case inv.RiskScore <= 50:
		return 70
	default:
		return 60
	}
}

// InsurancePayoutAmount is floor(fundedAmount * coverage / 100).
func (inv *Invoice) InsurancePayoutAmount() (uint64, error) {
	product, err := checkedMul(inv.FundedAmount, inv.CoveragePercent())
	if err != nil {
		return 0, err
	}
	return product / 100, nil
}

// ApplyClaim transitions the invoice to Defaulted. Call CanClaim first and
// complete the pool payout transfer before applying.
func (inv *Invoice) ApplyClaim(payout uint64, now time.Time) {
	inv.Status = StatusDefaulted
	inv.InsuranceClaimDate = &now
	inv.InsurancePayout = &payout
}
