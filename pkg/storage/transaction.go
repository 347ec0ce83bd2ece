package storage

import (
	"context"
	"strconv"

	"github.com/unet-io/unet/pkg/errcode"
)

// Transaction is the terminal handle a backend returns from
// BeginTransaction. Exactly one of Commit or Rollback must be called.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// WithTransaction runs fn inside a transaction, committing on a nil
// return and rolling back otherwise.
func WithTransaction(ctx context.Context, store Store, fn func(ctx context.Context) error) error {
	tx, err := store.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return rbErr
		}
		return err
	}
	return tx.Commit(ctx)
}

// WithTransactionControl runs fn inside a transaction, letting fn
// decide whether to commit via its returned bool. fn's error, if any,
// is returned after the transaction is resolved accordingly.
func WithTransactionControl[T any](ctx context.Context, store Store, fn func(ctx context.Context) (T, bool, error)) (T, error) {
	var zero T
	tx, err := store.BeginTransaction(ctx)
	if err != nil {
		return zero, err
	}

	result, commit, err := fn(ctx)
	if commit {
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return zero, commitErr
		}
		return result, err
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		return zero, rbErr
	}
	return result, err
}

// RetryTransaction retries fn up to maxAttempts times, treating any
// error as retryable except on the final attempt, where the error is
// returned to the caller.
func RetryTransaction(ctx context.Context, store Store, maxAttempts int, fn func(ctx context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = WithTransaction(ctx, store, fn)
		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}

// BatchWithTransaction runs a slice of independent operations inside a
// single transaction, stopping at the first failure and rolling back.
func BatchWithTransaction(ctx context.Context, store Store, ops []func(ctx context.Context) error) error {
	return WithTransaction(ctx, store, func(ctx context.Context) error {
		for i, op := range ops {
			if err := op(ctx); err != nil {
				return errcode.ConstraintViolationError{
					Message: "batch operation failed at index " + strconv.Itoa(i) + ": " + err.Error(),
				}
			}
		}
		return nil
	})
}
