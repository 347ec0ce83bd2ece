package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeTxStore embeds the Store interface (nil) so it only needs to
// implement BeginTransaction for these tests; any other method call
// would nil-panic and indicates a test bug.
type fakeTxStore struct {
	Store
	tx *fakeTx
}

func (f *fakeTxStore) BeginTransaction(ctx context.Context) (Transaction, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	store := &fakeTxStore{}
	err := WithTransaction(context.Background(), store, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	require.True(t, store.tx.committed)
	require.False(t, store.tx.rolledBack)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	store := &fakeTxStore{}
	want := errors.New("boom")
	err := WithTransaction(context.Background(), store, func(ctx context.Context) error {
		return want
	})
	require.ErrorIs(t, err, want)
	require.True(t, store.tx.rolledBack)
	require.False(t, store.tx.committed)
}

func TestWithTransactionControl_RespectsCommitFlag(t *testing.T) {
	store := &fakeTxStore{}
	result, err := WithTransactionControl(context.Background(), store, func(ctx context.Context) (int, bool, error) {
		return 42, false, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.True(t, store.tx.rolledBack)
}

func TestRetryTransaction_RetriesUntilSuccess(t *testing.T) {
	store := &fakeTxStore{}
	attempts := 0
	err := RetryTransaction(context.Background(), store, 3, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestBatchWithTransaction_StopsAtFirstFailure(t *testing.T) {
	store := &fakeTxStore{}
	var ran []int
	ops := []func(ctx context.Context) error{
		func(ctx context.Context) error { ran = append(ran, 0); return nil },
		func(ctx context.Context) error { ran = append(ran, 1); return errors.New("bad op") },
		func(ctx context.Context) error { ran = append(ran, 2); return nil },
	}
	err := BatchWithTransaction(context.Background(), store, ops)
	require.Error(t, err)
	require.Equal(t, []int{0, 1}, ran)
	require.True(t, store.tx.rolledBack)
}
