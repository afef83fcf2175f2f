package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightdesk/internal/domain"
)

func (s *BookingService) GetBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Booking, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingService) ListMyBookings(ctx context.Context, caller domain.Caller) ([]domain.Booking, error) {
	if caller.PassportNo == "" {
		return nil, domain.ErrUnauthenticated
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.ListByPassenger(ctx, caller.PassportNo)
}

func (s *BookingService) ListFlightBookings(ctx context.Context, caller domain.Caller, flightID string) ([]domain.Booking, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	flightID = strings.TrimSpace(flightID)
	if flightID == "" {
		return nil, domain.Validationf("flight_id is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.flights.GetByID(ctx, flightID); err != nil {
		return nil, err
	}
	return s.store.ListByFlight(ctx, flightID)
}

func (s *BookingService) ListPendingReschedules(ctx context.Context, caller domain.Caller) ([]domain.RescheduleTransaction, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.ListPendingReschedules(ctx, s.batchSize)
}
