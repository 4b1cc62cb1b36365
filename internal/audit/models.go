// Package audit records the immutable event trail of the marketplace.
//
// Each mutating ledger operation emits exactly one event; the trail is the
// only mechanism for external observers to reconstruct history. Events are
// append-only and carry a content fingerprint so tampering with a stored
// record is detectable.
package audit

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/blake2b"

	id "factorline/pkg/domain"
)

// Action identifies the lifecycle transition an event records.
type Action string

const (
	ActionInvoiceCreated   Action = "invoice_created"
	ActionInvoiceFunded    Action = "invoice_funded"
	ActionInvoiceRepaid    Action = "invoice_repaid"
	ActionInsuranceClaimed Action = "insurance_claimed"
)

// Event is one immutable audit record. Only the fields relevant to its Action
// are populated; the rest stay zero.
type Event struct {
	ID        string       `json:"id"`
	Action    Action       `json:"action"`
	InvoiceID id.InvoiceID `json:"invoice_id"`
	Timestamp time.Time    `json:"timestamp"`

	BusinessOwner string `json:"business_owner,omitempty"`
	Investor      string `json:"investor,omitempty"`

	Amount            uint64 `json:"amount,omitempty"`
	RiskScore         uint8  `json:"risk_score,omitempty"`
	InsurancePremium  uint64 `json:"insurance_premium,omitempty"`
	EstimatedYieldBps uint16 `json:"estimated_yield_bps,omitempty"`
	ExpectedReturn    uint64 `json:"expected_return,omitempty"`
	LateFee           uint64 `json:"late_fee,omitempty"`
	DaysOverdue       uint16 `json:"days_overdue,omitempty"`
	PayoutAmount      uint64 `json:"payout_amount,omitempty"`
	CoveragePercent   uint64 `json:"coverage_percent,omitempty"`

	// Request metadata captured by middleware, for forensics.
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	// Fingerprint is the hex BLAKE2b-256 digest of the event content,
	// computed before persistence. Recomputing it over a stored record
	// verifies the record was not altered.
	Fingerprint string `json:"fingerprint"`
}

// ComputeFingerprint digests the event content, excluding the fingerprint
// field itself.
func (e Event) ComputeFingerprint() string {
	e.Fingerprint = ""
	payload, err := json.Marshal(e)
	if err != nil {
		// Event contains only marshalable fields; this cannot happen.
		return ""
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the fingerprint and compares it to the stored one.
func (e Event) Verify() bool {
	return e.Fingerprint != "" && e.Fingerprint == e.ComputeFingerprint()
}
