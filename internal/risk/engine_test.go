package risk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "factorline/pkg/domain"
)

var assessNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// partyWithLeadByte builds an originator whose first identity byte is b, which
// pins the deterministic credit signal: (b*3 + 600) mod 850.
func partyWithLeadByte(b byte) id.PartyID {
	u := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	u[0] = b
	return id.PartyID(u)
}

func TestAssessIsDeterministic(t *testing.T) {
	e := NewEngine()
	p := partyWithLeadByte(10)
	due := assessNow.Add(45 * 24 * time.Hour)

	a := e.Assess(5_000_000, due, p, assessNow)
	b := e.Assess(5_000_000, due, p, assessNow)
	assert.Equal(t, a, b)
}

func TestAssessComposition(t *testing.T) {
	e := NewEngine()

	// lead byte 70: credit = (70*3 + 600) mod 850 = 810, credit risk 0.
	p := partyWithLeadByte(70)

	// base 10 + amount 5 (<=10M) + term 5 (45d) + credit 0 + industry 5 = 25.
	a := e.Assess(5_000_000, assessNow.Add(45*24*time.Hour), p, assessNow)
	assert.Equal(t, uint8(25), a.RiskScore)
	assert.Equal(t, uint16(810), a.EstimatedCreditScore)
	assert.Equal(t, uint8(5), a.IndustryRisk)
	assert.Equal(t, uint16(500+25*20), a.EstimatedYieldBps)
}

func TestAssessScoreIsCapped(t *testing.T) {
	e := NewEngine()

	// lead byte 0: credit = 600, credit risk 15. Large amount, short term:
	// 10 + 35 + 20 + 15 + 5 = 85, capped at 50.
	p := partyWithLeadByte(0)
	a := e.Assess(600_000_000, assessNow.Add(3*24*time.Hour), p, assessNow)
	assert.Equal(t, uint8(50), a.RiskScore)
	assert.Equal(t, uint16(1500), a.EstimatedYieldBps)
}

func TestAssessScoreBounds(t *testing.T) {
	e := NewEngine()
	amounts := []uint64{1, 10_000_000, 50_000_000, 100_000_000, 500_000_000, 10_000_000_000}
	terms := []time.Duration{1, 7, 14, 30, 60, 90, 180, 365}

	for _, amount := range amounts {
		for _, days := range terms {
			for _, lead := range []byte{0, 17, 70, 128, 255} {
				a := e.Assess(amount, assessNow.Add(days*24*time.Hour), partyWithLeadByte(lead), assessNow)
				assert.GreaterOrEqual(t, a.RiskScore, uint8(10))
				assert.LessOrEqual(t, a.RiskScore, uint8(50))
			}
		}
	}
}

func TestTermRiskBoundaries(t *testing.T) {
	tests := []struct {
		days int
		want uint8
	}{
		{7, 20}, {8, 15}, {14, 15}, {15, 10}, {30, 10},
		{31, 5}, {60, 5}, {61, 2}, {90, 2}, {91, 0}, {365, 0},
	}
	for _, tt := range tests {
		got := termRisk(time.Duration(tt.days) * 24 * time.Hour)
		assert.Equal(t, tt.want, got, "days=%d", tt.days)
	}
}

func TestAmountRiskBoundaries(t *testing.T) {
	tests := []struct {
		amount uint64
		want   uint8
	}{
		{10_000_000, 5}, {10_000_001, 10},
		{50_000_000, 10}, {50_000_001, 15},
		{100_000_000, 15}, {100_000_001, 25},
		{500_000_000, 25}, {500_000_001, 35},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, amountRisk(tt.amount), "amount=%d", tt.amount)
	}
}
