package booking

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, caller domain.Caller, input CreateBookingInput) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*CancelResult, error)
	UndoCancel(ctx context.Context, caller domain.Caller, bookingID int64) (*UndoResult, error)
	Reschedule(ctx context.Context, caller domain.Caller, input RescheduleInput) (*RescheduleResult, error)
	ProcessReschedule(ctx context.Context, caller domain.Caller, rescheduleID int64) (*RescheduleResult, error)

	GetBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*domain.Booking, error)
	ListMyBookings(ctx context.Context, caller domain.Caller) ([]domain.Booking, error)
	ListFlightBookings(ctx context.Context, caller domain.Caller, flightID string) ([]domain.Booking, error)
	ListPendingReschedules(ctx context.Context, caller domain.Caller) ([]domain.RescheduleTransaction, error)
}

// Jobs are run periodically by the worker.
type Jobs interface {
	ResyncTickets(ctx context.Context) (int, error)
	FinalizeRefunds(ctx context.Context) (int, error)
}

type Cache interface {
	AcquireSeatLock(ctx context.Context, flightID, seatNo string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseSeatLock(ctx context.Context, flightID, seatNo, token string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store   repository.BookingStore
	flights repository.FlightRepository
	log     logrus.FieldLogger

	cache       Cache
	seatLockTTL time.Duration

	producer           Producer
	eventsTopic        string
	notificationsTopic string

	refundGrace time.Duration
	opTimeout   time.Duration
	batchSize   int
	location    *time.Location
	now         func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithSeatLocks(cache Cache, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
		s.seatLockTTL = ttl
	}
}

func WithEvents(producer Producer, eventsTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithRefundGrace makes cancellations write pending refunds that stay undoable for d.
func WithRefundGrace(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.refundGrace = d
	}
}

func WithOperationTimeout(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.opTimeout = d
	}
}

func WithBatchSize(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithScheduleLocation sets the zone a reschedule's new_date is a calendar day in.
func WithScheduleLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	store repository.BookingStore,
	flights repository.FlightRepository,
	log logrus.FieldLogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:     store,
		flights:   flights,
		log:       log,
		batchSize: 100,
		location:  time.UTC,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// normalizeSeat trims and upper-cases; "12a" and "12A " are the same seat.
func normalizeSeat(seat string) (string, error) {
	seat = strings.ToUpper(strings.TrimSpace(seat))
	if seat == "" {
		return "", domain.Validationf("seat_no is required")
	}
	if !domain.ValidSeatNo(seat) {
		return "", domain.Validationf("seat_no %q is invalid", seat)
	}
	return seat, nil
}

func (s *BookingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout > 0 {
		return context.WithTimeout(ctx, s.opTimeout)
	}
	return context.WithCancel(ctx)
}

// authorize lets the owner or an admin act on a booking.
func authorize(caller domain.Caller, b *domain.Booking) error {
	if caller.IsAdmin() || caller.Owns(*b) {
		return nil
	}
	return domain.ErrNotOwner
}

func requireCaller(caller domain.Caller) error {
	if caller.PassportNo == "" && !caller.IsAdmin() {
		return domain.ErrUnauthenticated
	}
	return nil
}

// publish is best-effort: the transition already committed.
func (s *BookingService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	entry := s.log.WithFields(logrus.Fields{"event": event.Type, "booking_id": event.BookingID})

	key := event.PassportNo + "/" + event.FlightID
	if event.BookingID != 0 {
		key = strconv.FormatInt(event.BookingID, 10)
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, key, event); err != nil {
		entry.WithError(err).Warn("failed to publish booking event")
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
			entry.WithError(err).Warn("failed to publish notification")
		}
	}
}

func bookingEvent(eventType string, b domain.Booking) kafka.BookingEvent {
	event := kafka.NewBookingEvent(eventType)
	event.BookingID = b.ID
	event.FlightID = b.FlightID
	event.PassportNo = b.PassportNo
	event.SeatNo = b.SeatNo
	event.Status = string(b.Status)
	return event
}

var _ BookingUseCase = (*BookingService)(nil)
var _ Jobs = (*BookingService)(nil)
