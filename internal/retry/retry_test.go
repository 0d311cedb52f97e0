package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, CommandTimeout: time.Second}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesConflictThenSucceeds(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return domain.ErrConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetriesAndReturnsConflict(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		return domain.ErrConflict
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	// one initial attempt plus MaxAttempts retries
	assert.Equal(t, 1+testPolicy().MaxAttempts, calls)
}

func TestDo_NonConflictErrorPassesThroughImmediately(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	err := Do(context.Background(), testPolicy(), func(ctx context.Context) error {
		calls++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContextSurfacesAsErrCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, testPolicy(), func(ctx context.Context) error {
		return ctx.Err()
	})
	assert.ErrorIs(t, err, domain.ErrCancelled)
}
