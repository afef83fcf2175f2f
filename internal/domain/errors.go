package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrPersistence     = errors.New("internal error")
	ErrUnavailable     = errors.New("service temporarily unavailable")
)

var (
	ErrFlightNotFound     = fmt.Errorf("%w: flight not found", ErrNotFound)
	ErrBookingNotFound    = fmt.Errorf("%w: booking not found", ErrNotFound)
	ErrRescheduleNotFound = fmt.Errorf("%w: reschedule request not found", ErrNotFound)

	ErrSeatTaken         = fmt.Errorf("%w: seat already taken", ErrConflict)
	ErrSeatAlreadyBooked = fmt.Errorf("%w: already booked this seat", ErrConflict)
	ErrRefundFinalized   = fmt.Errorf("%w: refund already completed", ErrConflict)
	ErrBookingCancelled  = fmt.Errorf("%w: booking is cancelled", ErrConflict)
	ErrAlreadyProcessed  = fmt.Errorf("%w: reschedule request already processed", ErrConflict)

	ErrNotOwner = fmt.Errorf("%w: booking belongs to another passenger", ErrForbidden)
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Persistence marks err as a storage failure; the message is for logs only.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// PublicMessage is safe to send to untrusted callers.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnavailable):
		return ErrUnavailable.Error()
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict):
		return trimKind(err)
	default:
		return ErrPersistence.Error()
	}
}

// trimKind drops the "conflict: " style prefix so callers see the reason only.
func trimKind(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrValidation, ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrConflict} {
		if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
