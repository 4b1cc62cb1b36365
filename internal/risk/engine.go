// Package risk prices invoices at creation time.
//
// The engine is a pure function of its inputs: no stored state, no external
// calls, no randomness. The credit signal is a fixed deterministic function of
// the originator's identity bytes, a placeholder for an external credit-data
// integration. It sits behind the ledger service's RiskEngine interface so a
// real scoring source can be substituted without touching the state machine.
package risk

import (
	"time"

	id "factorline/pkg/domain"
)

const (
	baseScore    uint8 = 10
	industryRisk uint8 = 5
	maxScore     uint8 = 50

	baseYieldBps     uint16 = 500
	yieldPerRiskUnit uint16 = 20
)

// Assessment is the pricing output fixed on an invoice at creation.
type Assessment struct {
	RiskScore            uint8
	IndustryRisk         uint8
	EstimatedCreditScore uint16
	// EstimatedYieldBps is the projected investor yield in basis points.
	EstimatedYieldBps uint16
}

// Engine computes deterministic risk assessments.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Assess scores an invoice from its principal, term, and originator.
// The composite score is bounded to [10, 50] and drives both the insurance
// premium and the coverage tier.
func (e *Engine) Assess(amount uint64, dueDate time.Time, originator id.PartyID, now time.Time) Assessment {
	score := baseScore
	score += amountRisk(amount)
	score += termRisk(dueDate.Sub(now))

	credit := pseudoCreditScore(originator)
	score += creditRisk(credit)
	score += industryRisk

	if score > maxScore {
		score = maxScore
	}

	return Assessment{
		RiskScore:            score,
		IndustryRisk:         industryRisk,
		EstimatedCreditScore: credit,
		EstimatedYieldBps:    baseYieldBps + uint16(score)*yieldPerRiskUnit,
	}
}

// amountRisk adds risk by principal tier; larger invoices carry more risk.
// Tiers are in 10^6-scaled minor units (10_000_000 = 10 whole units).
func amountRisk(amount uint64) uint8 {
	switch {
	case amount <= 10_000_000:
		return 5
	case amount <= 50_000_000:
		return 10
	case amount <= 100_000_000:
		return 15
	case amount <= 500_000_000:
		return 25
	default:
		return 35
	}
}

// termRisk adds risk by days to the due date; shorter terms carry more risk.
func termRisk(term time.Duration) uint8 {
	days := int64(term / (24 * time.Hour))
	switch {
	case days <= 7:
		return 20
	case days <= 14:
		return 15
	case days <= 30:
		return 10
	case days <= 60:
		return 5
	case days <= 90:
		return 2
	default:
		return 0
	}
}

// pseudoCreditScore derives a stand-in credit score from the first byte of
// the originator's identity. Deterministic so pricing is reproducible; not a
// real credit check.
func pseudoCreditScore(originator id.PartyID) uint16 {
	b := originator.Bytes()
	return (uint16(b[0])*3 + 600) % 850
}

func creditRisk(score uint16) uint8 {
	switch {
	case score >= 800:
		return 0
	case score >= 750:
		return 2
	case score >= 700:
		return 5
	case score >= 650:
		return 10
	default:
		return 15
	}
}
