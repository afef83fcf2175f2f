package api

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/Domenick1991/flightdesk/internal/service/flights"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

var _ booking.BookingUseCase = (*MockBookingUseCase)(nil)

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, caller domain.Caller, input booking.CreateBookingInput) (*booking.CreateBookingResult, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CreateBookingResult), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*booking.CancelResult, error) {
	args := m.Called(ctx, caller, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *MockBookingUseCase) UndoCancel(ctx context.Context, caller domain.Caller, bookingID int64) (*booking.UndoResult, error) {
	args := m.Called(ctx, caller, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.UndoResult), args.Error(1)
}

func (m *MockBookingUseCase) Reschedule(ctx context.Context, caller domain.Caller, input booking.RescheduleInput) (*booking.RescheduleResult, error) {
	args := m.Called(ctx, caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.RescheduleResult), args.Error(1)
}

func (m *MockBookingUseCase) ProcessReschedule(ctx context.Context, caller domain.Caller, rescheduleID int64) (*booking.RescheduleResult, error) {
	args := m.Called(ctx, caller, rescheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.RescheduleResult), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Booking, error) {
	args := m.Called(ctx, caller, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListMyBookings(ctx context.Context, caller domain.Caller) ([]domain.Booking, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListFlightBookings(ctx context.Context, caller domain.Caller, flightID string) ([]domain.Booking, error) {
	args := m.Called(ctx, caller, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListPendingReschedules(ctx context.Context, caller domain.Caller) ([]domain.RescheduleTransaction, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RescheduleTransaction), args.Error(1)
}

type MockFlightUseCase struct {
	mock.Mock
}

var _ flights.FlightUseCase = (*MockFlightUseCase)(nil)

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) Search(ctx context.Context, source, destination, date string) ([]domain.Flight, error) {
	args := m.Called(ctx, source, destination, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}
