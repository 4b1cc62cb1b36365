package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "factorline/pkg/domain-errors"
)

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusPendingFunding, StatusFunded, StatusRepaid, StatusDefaulted}

	allowed := map[Status]map[Status]bool{
		StatusPendingFunding: {StatusFunded: true},
		StatusFunded:         {StatusRepaid: true, StatusDefaulted: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPendingFunding.IsTerminal())
	assert.False(t, StatusFunded.IsTerminal())
	assert.True(t, StatusRepaid.IsTerminal())
	assert.True(t, StatusDefaulted.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("funded")
	require.NoError(t, err)
	assert.Equal(t, StatusFunded, s)

	_, err = ParseStatus("liquidated")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseStatus("")
	require.Error(t, err)
}
