package service

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

// incrementingClock returns a func() time.Time whose successive calls each
// advance by one millisecond, so created_at ordering across a batch of
// rapid inserts is deterministic.
func incrementingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		current := next
		next = next.Add(time.Millisecond)
		return current
	}
}

const ownerID = int32(1)

func newTestLedger(t *testing.T) (*LedgerService, *testutil.MockTransactionStore) {
	t.Helper()
	store := testutil.NewMockTransactionStore()
	store.SetClock(incrementingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	owners := testutil.NewMockOwnerRepository()
	owners.Seed(&domain.Owner{ID: ownerID, InitialBalance: decimal.Zero})

	categories := testutil.NewMockCategoryRepository()
	groups := testutil.NewMockGroupRepository(store)

	svc := NewLedgerService(store, owners, categories, groups)
	return svc, store
}

func mustCreate(t *testing.T, svc *LedgerService, kind domain.TransactionKind, amount string, date time.Time) *domain.Transaction {
	t.Helper()
	tx, err := svc.CreateTransaction(context.Background(), domain.NewTransactionInput{
		OwnerID:       ownerID,
		Kind:          kind,
		Amount:        decimal.RequireFromString(amount),
		Date:          date,
		Subject:       "row",
		PaymentMethod: domain.PaymentMethodCash,
	})
	require.NoError(t, err)
	return tx
}

func nov(day int) time.Time {
	return time.Date(2024, 11, day, 0, 0, 0, 0, time.UTC)
}

// s1Insert returns the seven rows of scenario S1, in insertion order, all
// dated Nov 15.
func s1Insert(t *testing.T, svc *LedgerService) []*domain.Transaction {
	t.Helper()
	date := nov(15)
	rows := []*domain.Transaction{
		mustCreate(t, svc, domain.KindIncome, "3500", date),
		mustCreate(t, svc, domain.KindExpense, "50", date),
		mustCreate(t, svc, domain.KindExpense, "60", date),
		mustCreate(t, svc, domain.KindExpense, "1200", date),
		mustCreate(t, svc, domain.KindIncome, "500", date),
		mustCreate(t, svc, domain.KindExpense, "350", date),
		mustCreate(t, svc, domain.KindIncome, "1000", date),
	}
	return rows
}

func assertDelta(t *testing.T, tx *domain.Transaction, want string) {
	t.Helper()
	assert.True(t, tx.CumulativeDelta.Equal(decimal.RequireFromString(want)),
		"cumulative_delta = %s, want %s", tx.CumulativeDelta.String(), want)
}

func TestS1_SequentialInsertsSameDate(t *testing.T) {
	svc, _ := newTestLedger(t)
	rows := s1Insert(t, svc)

	want := []string{"3500", "3450", "3390", "2190", "2690", "2340", "3340"}
	for i, r := range rows {
		assertDelta(t, r, want[i])
	}
}

func TestS2_OutOfOrderInsert(t *testing.T) {
	svc, _ := newTestLedger(t)

	a := mustCreate(t, svc, domain.KindIncome, "100", nov(10))
	assertDelta(t, a, "100")

	b := mustCreate(t, svc, domain.KindIncome, "30", nov(5))
	assertDelta(t, b, "30")

	a, err := svc.GetTransaction(context.Background(), a.ID)
	require.NoError(t, err)
	assertDelta(t, a, "130")
}

func TestS3_AmountEditSameDate(t *testing.T) {
	svc, _ := newTestLedger(t)
	rows := s1Insert(t, svc)

	row3 := rows[2]
	updated, err := svc.UpdateTransaction(context.Background(), row3.ID, domain.NewTransactionInput{
		OwnerID:       ownerID,
		Kind:          domain.KindExpense,
		Amount:        decimal.RequireFromString("90"),
		Date:          row3.Date,
		Subject:       row3.Subject,
		PaymentMethod: row3.PaymentMethod,
	})
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(row3.CreatedAt))

	want := []string{"3500", "3450", "3360", "2160", "2660", "2310", "3310"}
	for i, r := range rows {
		got, err := svc.GetTransaction(context.Background(), r.ID)
		require.NoError(t, err)
		assertDelta(t, got, want[i])
	}
}

func TestS4_MoveForward(t *testing.T) {
	svc, _ := newTestLedger(t)

	dates := []time.Time{nov(10), nov(11), nov(12), nov(13), nov(14), nov(15), nov(16)}
	kinds := []domain.TransactionKind{domain.KindIncome, domain.KindExpense, domain.KindExpense, domain.KindExpense, domain.KindIncome, domain.KindExpense, domain.KindIncome}
	amounts := []string{"3500", "50", "60", "1200", "500", "350", "1000"}

	rows := make([]*domain.Transaction, 7)
	for i := range dates {
		rows[i] = mustCreate(t, svc, kinds[i], amounts[i], dates[i])
	}

	row2 := rows[1]
	_, err := svc.UpdateTransaction(context.Background(), row2.ID, domain.NewTransactionInput{
		OwnerID:       ownerID,
		Kind:          row2.Kind,
		Amount:        row2.Amount,
		Date:          nov(15),
		Subject:       row2.Subject,
		PaymentMethod: row2.PaymentMethod,
	})
	require.NoError(t, err)

	ordered, _, err := svc.ListByOwnerAndDateRange(context.Background(), ownerID, nov(10), nov(16))
	require.NoError(t, err)
	// ListByOwnerAndDateRange returns date DESC; reverse for chronological
	// assertions.
	chron := make([]*domain.Transaction, len(ordered))
	for i, r := range ordered {
		chron[len(ordered)-1-i] = r
	}

	wantIDs := []int32{rows[0].ID, rows[2].ID, rows[3].ID, rows[4].ID, row2.ID, rows[5].ID, rows[6].ID}
	var gotIDs []int32
	for _, r := range chron {
		gotIDs = append(gotIDs, r.ID)
	}
	assert.Equal(t, wantIDs, gotIDs)

	wantDeltas := []string{"3500", "3440", "2240", "2740", "2690", "2340", "3340"}
	for i, r := range chron {
		assertDelta(t, r, wantDeltas[i])
	}
}

func TestS5_MoveBackward(t *testing.T) {
	svc, _ := newTestLedger(t)
	rows := s1Insert(t, svc)

	row7 := rows[6]
	_, err := svc.UpdateTransaction(context.Background(), row7.ID, domain.NewTransactionInput{
		OwnerID:       ownerID,
		Kind:          row7.Kind,
		Amount:        row7.Amount,
		Date:          nov(10),
		Subject:       row7.Subject,
		PaymentMethod: row7.PaymentMethod,
	})
	require.NoError(t, err)

	all, _, err := svc.ListByOwnerAndDateRange(context.Background(), ownerID, nov(1), nov(30))
	require.NoError(t, err)
	chron := make([]*domain.Transaction, len(all))
	for i, r := range all {
		chron[len(all)-1-i] = r
	}

	wantIDs := []int32{row7.ID, rows[0].ID, rows[1].ID, rows[2].ID, rows[3].ID, rows[4].ID, rows[5].ID}
	var gotIDs []int32
	for _, r := range chron {
		gotIDs = append(gotIDs, r.ID)
	}
	assert.Equal(t, wantIDs, gotIDs)

	wantDeltas := []string{"1000", "4500", "4450", "4390", "3190", "3690", "3340"}
	for i, r := range chron {
		assertDelta(t, r, wantDeltas[i])
	}
}

func TestS6_DeleteMiddle(t *testing.T) {
	svc, _ := newTestLedger(t)
	rows := s1Insert(t, svc)

	err := svc.DeleteTransaction(context.Background(), rows[3].ID)
	require.NoError(t, err)

	want := []string{"3500", "3450", "3390", "3890", "3540", "4540"}
	remaining := append(append([]*domain.Transaction{}, rows[:3]...), rows[4:]...)
	for i, r := range remaining {
		got, err := svc.GetTransaction(context.Background(), r.ID)
		require.NoError(t, err)
		assertDelta(t, got, want[i])
	}

	_, err = svc.GetTransaction(context.Background(), rows[3].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestS7_ReferentialIntegrity(t *testing.T) {
	svc, store := newTestLedger(t)

	unknownCategory := int32(999)
	_, err := svc.CreateTransaction(context.Background(), domain.NewTransactionInput{
		OwnerID:       ownerID,
		Kind:          domain.KindExpense,
		Amount:        decimal.NewFromInt(10),
		Date:          nov(1),
		Subject:       "row",
		PaymentMethod: domain.PaymentMethodCash,
		CategoryID:    &unknownCategory,
	})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	_, err = svc.CreateTransaction(context.Background(), domain.NewTransactionInput{
		OwnerID:       999,
		Kind:          domain.KindExpense,
		Amount:        decimal.NewFromInt(10),
		Date:          nov(1),
		Subject:       "row",
		PaymentMethod: domain.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, domain.ErrOwnerNotFound)

	group := &domain.TransactionGroup{ID: 5, OwnerID: ownerID, Name: "Trip"}
	groups := svc.groups.(*testutil.MockGroupRepository)
	groups.Seed(group)

	tx := mustCreate(t, svc, domain.KindExpense, "20", nov(1))
	_, err = svc.UpdateTransaction(context.Background(), tx.ID, domain.NewTransactionInput{
		OwnerID:       ownerID,
		Kind:          tx.Kind,
		Amount:        tx.Amount,
		Date:          tx.Date,
		Subject:       tx.Subject,
		PaymentMethod: tx.PaymentMethod,
		GroupID:       &group.ID,
	})
	require.NoError(t, err)

	before, err := svc.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)

	err = svc.DeleteGroup(group.ID)
	require.NoError(t, err)

	after, err := store.GetByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Nil(t, after.GroupID)
	assert.True(t, after.CumulativeDelta.Equal(before.CumulativeDelta))
}

func TestCheckCategoryDeletable_RestrictsWhileInUse(t *testing.T) {
	svc, _ := newTestLedger(t)
	categories := svc.categories.(*testutil.MockCategoryRepository)
	category := &domain.Category{ID: 3, Name: "Food"}
	categories.Seed(category)

	require.NoError(t, svc.CheckCategoryDeletable(category.ID))

	categories.SetInUse(category.ID, true)
	assert.ErrorIs(t, svc.CheckCategoryDeletable(category.ID), domain.ErrCategoryInUse)

	categories.SetInUse(category.ID, false)
	assert.NoError(t, svc.CheckCategoryDeletable(category.ID))
}
