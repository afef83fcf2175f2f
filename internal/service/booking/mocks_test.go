package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSeatLock(ctx context.Context, flightID, seatNo string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, flightID, seatNo, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) ReleaseSeatLock(ctx context.Context, flightID, seatNo, token string) error {
	args := m.Called(ctx, flightID, seatNo, token)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.BookingTx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockBookingStore) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingStore) ListByPassenger(ctx context.Context, passportNo string) ([]domain.Booking, error) {
	args := m.Called(ctx, passportNo)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingStore) ListByFlight(ctx context.Context, flightID string) ([]domain.Booking, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingStore) ListPendingReschedules(ctx context.Context, limit int) ([]domain.RescheduleTransaction, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.RescheduleTransaction), args.Error(1)
}

func (m *MockBookingStore) ListUnsyncedBookings(ctx context.Context, limit int) ([]domain.Booking, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingStore) SyncTicket(ctx context.Context, ticket domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *MockBookingStore) FinalizeRefundsBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Refund, error) {
	args := m.Called(ctx, deadline, limit)
	return args.Get(0).([]domain.Refund), args.Error(1)
}
