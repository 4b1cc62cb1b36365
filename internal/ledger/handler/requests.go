package handler

import (
	"time"

	"github.com/asaskevich/govalidator"

	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
)

// CreateInvoiceRequest is the HTTP request body for POST /invoices.
type CreateInvoiceRequest struct {
	InvoiceID  string `json:"invoice_id" valid:"required,numeric"`
	Amount     uint64 `json:"amount" valid:"required"`
	DueDate    string `json:"due_date" valid:"required,rfc3339"`
	DebtorInfo string `json:"debtor_info" valid:"required"`

	// Parsed values (populated by Validate)
	parsedInvoiceID id.InvoiceID
	parsedDueDate   time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateInvoiceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if _, err := govalidator.ValidateStruct(r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid create invoice request")
	}

	invoiceID, err := id.ParseInvoiceID(r.InvoiceID)
	if err != nil {
		return err
	}
	r.parsedInvoiceID = invoiceID

	dueDate, err := time.Parse(time.RFC3339, r.DueDate)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "due_date must be an RFC 3339 timestamp")
	}
	r.parsedDueDate = dueDate

	return nil
}

// ParsedInvoiceID returns the validated invoice ID.
func (r *CreateInvoiceRequest) ParsedInvoiceID() id.InvoiceID {
	return r.parsedInvoiceID
}

// ParsedDueDate returns the validated due date.
func (r *CreateInvoiceRequest) ParsedDueDate() time.Time {
	return r.parsedDueDate
}

// FundInvoiceRequest is the HTTP request body for POST /invoices/{id}/fund.
// The amount must match the invoice face value; the service enforces this.
type FundInvoiceRequest struct {
	Amount uint64 `json:"amount" valid:"required"`
}

func (r *FundInvoiceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if _, err := govalidator.ValidateStruct(r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid funding request")
	}
	return nil
}

// RepayInvoiceRequest is the HTTP request body for POST /invoices/{id}/repay.
// The amount must cover principal, yield, and any accrued late fee.
type RepayInvoiceRequest struct {
	Amount uint64 `json:"amount" valid:"required"`
}

func (r *RepayInvoiceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if _, err := govalidator.ValidateStruct(r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid repayment request")
	}
	return nil
}
