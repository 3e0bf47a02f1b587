package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrAlreadySettled     = errors.New("already settled")
	ErrForbidden          = errors.New("forbidden")
	ErrMaintenance        = errors.New("maintenance mode")
)

// retryable reports whether the error is a transient store failure worth one
// retry: serialization/deadlock aborts or a connection that died before use.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return pgconn.SafeToRetry(err)
}

// withRetry runs op and retries it once on a transient store error.
func withRetry(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil || !retryable(err) {
		return err
	}
	return op(ctx)
}
