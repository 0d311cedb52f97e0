package balance

import (
	"context"
	"testing"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/fortuna/ledger-engine/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownerID = int32(1)

func TestGetBalance_NoTransactions(t *testing.T) {
	store := testutil.NewMockTransactionStore()
	owners := testutil.NewMockOwnerRepository()
	owners.Seed(&domain.Owner{ID: ownerID, InitialBalance: decimal.NewFromInt(500)})

	svc := NewService(owners, store)
	bal, err := svc.GetBalance(context.Background(), ownerID)
	require.NoError(t, err)
	assert.True(t, bal.CurrentBalance.Equal(decimal.NewFromInt(500)))
	assert.True(t, bal.CumulativeDelta.IsZero())
}

func TestGetBalance_WithTransactions(t *testing.T) {
	store := testutil.NewMockTransactionStore()
	owners := testutil.NewMockOwnerRepository()
	owners.Seed(&domain.Owner{ID: ownerID, InitialBalance: decimal.NewFromInt(100)})

	date := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Insert(context.Background(), &domain.Transaction{
		OwnerID:       ownerID,
		Kind:          domain.KindIncome,
		Amount:        decimal.NewFromInt(50),
		SignedAmount:  decimal.NewFromInt(50),
		Date:          date,
		Subject:       "pay",
		PaymentMethod: domain.PaymentMethodCash,
	})
	require.NoError(t, err)

	svc := NewService(owners, store)
	bal, err := svc.GetBalance(context.Background(), ownerID)
	require.NoError(t, err)
	assert.True(t, bal.CumulativeDelta.Equal(decimal.NewFromInt(50)))
	assert.True(t, bal.CurrentBalance.Equal(decimal.NewFromInt(150)))
}

func TestGetBalance_UnknownOwner(t *testing.T) {
	store := testutil.NewMockTransactionStore()
	owners := testutil.NewMockOwnerRepository()

	svc := NewService(owners, store)
	_, err := svc.GetBalance(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)
}

func TestSetInitialBalance(t *testing.T) {
	store := testutil.NewMockTransactionStore()
	owners := testutil.NewMockOwnerRepository()
	owners.Seed(&domain.Owner{ID: ownerID, InitialBalance: decimal.Zero})

	svc := NewService(owners, store)
	updated, err := svc.SetInitialBalance(context.Background(), ownerID, decimal.NewFromFloat(42.567))
	require.NoError(t, err)
	assert.Equal(t, "42.57", updated.InitialBalance.StringFixed(2))
}
