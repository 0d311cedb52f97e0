package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newIntegrationPool connects to DATABASE_URL when set, or skips the test.
// The repository's bulk-repair SQL (window comparisons, the CTE delete,
// FOR UPDATE locking) needs a real engine to exercise meaningfully; there is
// no pgxpool fake in this pack to substitute for one.
func newIntegrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping repository integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestTransactionRepository_InsertRepairsSubsequentRows(t *testing.T) {
	pool := newIntegrationPool(t)
	repo := NewTransactionRepository(pool)

	ctx := context.Background()
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.Insert(ctx, &domain.Transaction{
		OwnerID: 1, Kind: domain.KindIncome, Amount: decimal.NewFromInt(100), SignedAmount: decimal.NewFromInt(100),
		Date: date, Subject: "first", PaymentMethod: domain.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.Equal(t, "100.00", first.CumulativeDelta.StringFixed(2))

	earlier, err := repo.Insert(ctx, &domain.Transaction{
		OwnerID: 1, Kind: domain.KindExpense, Amount: decimal.NewFromInt(40), SignedAmount: decimal.NewFromInt(-40),
		Date: date.AddDate(0, 0, -1), Subject: "earlier", PaymentMethod: domain.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.Equal(t, "-40.00", earlier.CumulativeDelta.StringFixed(2))

	reloaded, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "60.00", reloaded.CumulativeDelta.StringFixed(2))
}
