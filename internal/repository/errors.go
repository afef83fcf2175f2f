package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	pgQueryCanceled        = "57014"
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify turns driver errors into the domain taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnavailable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == activeSeatIndex {
				return domain.ErrSeatTaken
			}
		case pgQueryCanceled, pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s: %w", domain.ErrUnavailable, op, err)
		}
	}
	return domain.Persistence(op, err)
}

// notFound maps pgx.ErrNoRows to the given domain error.
func notFound(op string, err error, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return classify(op, err)
}
