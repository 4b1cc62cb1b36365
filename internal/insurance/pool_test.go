package insurance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorline/pkg/platform/sentinel"
)

func TestPoolCreditAndBalance(t *testing.T) {
	p := NewInMemoryPool()
	ctx := context.Background()

	bal, err := p.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bal)

	bal, err = p.Credit(ctx, 40_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), bal)

	bal, err = p.Credit(ctx, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), bal)
}

func TestPoolDebit(t *testing.T) {
	p := NewInMemoryPool()
	ctx := context.Background()

	_, err := p.Credit(ctx, 50_000)
	require.NoError(t, err)

	bal, err := p.Debit(ctx, 30_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000), bal)
}

func TestPoolDebitUnderflowRejected(t *testing.T) {
	p := NewInMemoryPool()
	ctx := context.Background()

	_, err := p.Credit(ctx, 100)
	require.NoError(t, err)

	_, err = p.Debit(ctx, 101)
	require.ErrorIs(t, err, sentinel.ErrInsufficient)

	// A rejected debit leaves the balance untouched.
	bal, err := p.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal)
}
