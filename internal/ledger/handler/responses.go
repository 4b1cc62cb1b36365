package handler

import (
	"time"

	"factorline/internal/audit"
	"factorline/internal/ledger/models"
	"factorline/internal/registry"
)

// InvoiceResponse is the HTTP projection of an invoice record.
type InvoiceResponse struct {
	InvoiceID        string    `json:"invoice_id"`
	BusinessOwner    string    `json:"business_owner"`
	Investor         *string   `json:"investor,omitempty"`
	Amount           uint64    `json:"amount"`
	FundedAmount     uint64    `json:"funded_amount"`
	DueDate          time.Time `json:"due_date"`
	DebtorInfo       string    `json:"debtor_info"`
	Status           string    `json:"status"`
	RiskScore        uint8     `json:"risk_score"`
	InsurancePremium uint64    `json:"insurance_premium"`
	IndustryRisk     uint8     `json:"industry_risk"`
	CreditScore      uint16    `json:"credit_score"`
	PaymentTermsDays uint16    `json:"payment_terms_days"`
	CreatedAt        time.Time `json:"created_at"`

	FundingDate          *time.Time `json:"funding_date,omitempty"`
	ExpectedReturn       *uint64    `json:"expected_return,omitempty"`
	RepaymentDate        *time.Time `json:"repayment_date,omitempty"`
	FinalRepaymentAmount *uint64    `json:"final_repayment_amount,omitempty"`
	LateFee              *uint64    `json:"late_fee,omitempty"`
	InsuranceClaimDate   *time.Time `json:"insurance_claim_date,omitempty"`
	InsurancePayout      *uint64    `json:"insurance_payout,omitempty"`
}

// FromInvoice builds the HTTP projection of an invoice.
func FromInvoice(inv *models.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		InvoiceID:            inv.ID.String(),
		BusinessOwner:        inv.BusinessOwner.String(),
		Amount:               inv.Amount,
		FundedAmount:         inv.FundedAmount,
		DueDate:              inv.DueDate,
		DebtorInfo:           inv.DebtorInfo,
		Status:               string(inv.Status),
		RiskScore:            inv.RiskScore,
		InsurancePremium:     inv.InsurancePremium,
		IndustryRisk:         inv.IndustryRisk,
		CreditScore:          inv.CreditScore,
		PaymentTermsDays:     inv.PaymentTermsDays,
		CreatedAt:            inv.CreatedAt,
		FundingDate:          inv.FundingDate,
		ExpectedReturn:       inv.ExpectedReturn,
		RepaymentDate:        inv.RepaymentDate,
		FinalRepaymentAmount: inv.FinalRepaymentAmount,
		LateFee:              inv.LateFee,
		InsuranceClaimDate:   inv.InsuranceClaimDate,
		InsurancePayout:      inv.InsurancePayout,
	}
	if !inv.Investor.IsNil() {
		investor := inv.Investor.String()
		resp.Investor = &investor
	}
	return resp
}

// InvoiceListResponse wraps the list endpoint payload.
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
}

// FromInvoiceList builds the list projection. Always renders a JSON array,
// never null.
func FromInvoiceList(invoices []*models.Invoice) InvoiceListResponse {
	out := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, FromInvoice(inv))
	}
	return InvoiceListResponse{Invoices: out}
}

// EventListResponse wraps an invoice's audit trail.
type EventListResponse struct {
	Events []audit.Event `json:"events"`
}

// RegistryResponse is the HTTP projection of the global registry.
type RegistryResponse struct {
	TotalInvoices        uint64    `json:"total_invoices"`
	TotalFunded          uint64    `json:"total_funded"`
	InsurancePoolBalance uint64    `json:"insurance_pool_balance"`
	Authority            string    `json:"authority"`
	SettlementAsset      string    `json:"settlement_asset"`
	CreatedAt            time.Time `json:"created_at"`
}

// FromRegistry builds the registry projection.
func FromRegistry(state *registry.State) RegistryResponse {
	return RegistryResponse{
		TotalInvoices:        state.TotalInvoices,
		TotalFunded:          state.TotalFunded,
		InsurancePoolBalance: state.InsurancePoolBalance,
		Authority:            state.Authority.String(),
		SettlementAsset:      state.SettlementAsset.String(),
		CreatedAt:            state.CreatedAt,
	}
}
