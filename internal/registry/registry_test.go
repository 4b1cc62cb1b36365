package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
	"factorline/pkg/platform/sentinel"
)

func bootstrapState() *State {
	return &State{
		Authority:       id.PartyID(uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa")),
		SettlementAsset: id.AssetID(uuid.MustParse("bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb")),
		CreatedAt:       time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestInMemoryCreateOnce(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, bootstrapState()))
	err := s.Create(ctx, bootstrapState())
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestInMemoryGetBeforeCreate(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get(context.Background())
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryGetReturnsCopy(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, bootstrapState()))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	got.TotalInvoices = 99

	again, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), again.TotalInvoices)
}

func TestInMemoryExecute(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, bootstrapState()))

	updated, err := s.Execute(ctx, nil, func(st *State) {
		st.TotalInvoices++
		st.TotalFunded += 1_000_000
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), updated.TotalInvoices)
	assert.Equal(t, uint64(1_000_000), updated.TotalFunded)
}

func TestInMemoryExecuteValidationBlocksApply(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, bootstrapState()))

	_, err := s.Execute(ctx,
		func(st *State) error {
			if st.InsurancePoolBalance < 500 {
				return dErrors.New(dErrors.CodeInternal, "registry pool mirror underflow")
			}
			return nil
		},
		func(st *State) { st.InsurancePoolBalance -= 500 },
	)
	require.Error(t, err)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.InsurancePoolBalance)
}

func TestInMemoryExecuteBeforeCreate(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Execute(context.Background(), nil, func(st *State) { st.TotalInvoices++ })
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
